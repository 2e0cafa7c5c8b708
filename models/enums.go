package models

import "errors"

type AccountType string

const (
	AccountTypeAsset      AccountType = "asset"
	AccountTypeLiability  AccountType = "liability"
	AccountTypeEquity     AccountType = "equity"
	AccountTypeRevenue    AccountType = "revenue"
	AccountTypeExpense    AccountType = "expense"
	AccountTypeBank       AccountType = "bank"
	AccountTypeCreditCard AccountType = "credit-card"
)

func ParseAccountType(s string) (AccountType, error) {
	switch s {
	case "asset":
		return AccountTypeAsset, nil
	case "liability":
		return AccountTypeLiability, nil
	case "equity":
		return AccountTypeEquity, nil
	case "revenue":
		return AccountTypeRevenue, nil
	case "expense":
		return AccountTypeExpense, nil
	case "bank":
		return AccountTypeBank, nil
	case "credit-card":
		return AccountTypeCreditCard, nil
	}
	return "", errors.New("invalid account type")
}

type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
	NormalBalanceNa     NormalBalance = "NA"
)

// NormalBalance reports whether the account type conventionally increases on
// debit or credit postings. Unrecognized types have no normal balance and are
// never posted against.
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeBank:
		return NormalBalanceDebit
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeCreditCard:
		return NormalBalanceCredit
	}
	return NormalBalanceNa
}

type EntryKind string

const (
	EntryKindDebit  EntryKind = "debit"
	EntryKindCredit EntryKind = "credit"
	// EntryKindNoType is carried by legacy transactions captured before entry
	// kinds were recorded. Such entries never move a balance.
	EntryKindNoType EntryKind = "no-type"
)

func ParseEntryKind(s string) (EntryKind, error) {
	switch s {
	case "debit":
		return EntryKindDebit, nil
	case "credit":
		return EntryKindCredit, nil
	case "no-type":
		return EntryKindNoType, nil
	}
	return "", errors.New("invalid entry kind")
}

type RentStatus string

const (
	RentStatusScheduled RentStatus = "scheduled"
	RentStatusDue       RentStatus = "due"
	RentStatusOverdue   RentStatus = "overdue"
	RentStatusPaid      RentStatus = "paid"
)

func ParseRentStatus(s string) (RentStatus, error) {
	switch s {
	case "scheduled":
		return RentStatusScheduled, nil
	case "due":
		return RentStatusDue, nil
	case "overdue":
		return RentStatusOverdue, nil
	case "paid":
		return RentStatusPaid, nil
	}
	return "", errors.New("invalid rent status")
}

type PropertyType string

const (
	PropertyTypeResidential PropertyType = "residential"
	PropertyTypeCommercial  PropertyType = "commercial"
	PropertyTypeMultiUnit   PropertyType = "multi_unit"
)

func ParsePropertyType(s string) (PropertyType, error) {
	switch s {
	case "residential":
		return PropertyTypeResidential, nil
	case "commercial":
		return PropertyTypeCommercial, nil
	case "multi_unit":
		return PropertyTypeMultiUnit, nil
	}
	return "", errors.New("invalid property type")
}
