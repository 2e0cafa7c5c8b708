package models

import "testing"

func TestAccountTypeNormalBalance(t *testing.T) {
	debitNormal := []AccountType{AccountTypeAsset, AccountTypeExpense, AccountTypeBank}
	for _, accountType := range debitNormal {
		if got := accountType.NormalBalance(); got != NormalBalanceDebit {
			t.Errorf("%s: got %s, want DEBIT", accountType, got)
		}
	}
	creditNormal := []AccountType{AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeCreditCard}
	for _, accountType := range creditNormal {
		if got := accountType.NormalBalance(); got != NormalBalanceCredit {
			t.Errorf("%s: got %s, want CREDIT", accountType, got)
		}
	}
	if got := AccountType("suspense").NormalBalance(); got != NormalBalanceNa {
		t.Errorf("unknown type: got %s, want NA", got)
	}
}

func TestParseAccountType(t *testing.T) {
	if _, err := ParseAccountType("credit-card"); err != nil {
		t.Errorf("credit-card should parse: %v", err)
	}
	if _, err := ParseAccountType("Asset"); err == nil {
		t.Error("parsing is case sensitive, Asset should fail")
	}
	if _, err := ParseAccountType(""); err == nil {
		t.Error("empty account type should fail")
	}
}

func TestParseEntryKind(t *testing.T) {
	kind, err := ParseEntryKind("no-type")
	if err != nil {
		t.Fatalf("no-type should parse: %v", err)
	}
	if kind != EntryKindNoType {
		t.Errorf("got %s", kind)
	}
	if _, err := ParseEntryKind("withdrawal"); err == nil {
		t.Error("unknown entry kind should fail")
	}
}

func TestParseRentStatus(t *testing.T) {
	for _, s := range []string{"scheduled", "due", "overdue", "paid"} {
		if _, err := ParseRentStatus(s); err != nil {
			t.Errorf("%s should parse: %v", s, err)
		}
	}
	if _, err := ParseRentStatus("partial"); err == nil {
		t.Error("unknown rent status should fail")
	}
}
