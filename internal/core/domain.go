package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPaid    EntryStatus = "paid"
	StatusPlanned EntryStatus = "planned"
	StatusOverdue EntryStatus = "overdue"
)

type (
	EntryStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is a single dated expense. Entries generated from a recurring
	// template are identified through materialization records, never through
	// a flag stored on the entry itself.
	Entry struct {
		ID          int64
		Date        Date
		Description string
		Category    string
		Amount      Money
		Status      EntryStatus
		AccountID   string // optional, empty when not tied to an account
	}

	// RecurringTemplate describes an obligation that produces one entry per
	// financial period. Templates are archived via Active=false, never
	// deleted, so historical entries keep their provenance.
	RecurringTemplate struct {
		ID          int64
		Description string
		Category    string
		Amount      Money
		DayOfMonth  int // 1-31, clamped to the period's month on materialization
		Active      bool
	}

	// MaterializationRecord is the deduplication ledger: one row per
	// (template, period) pair proves the template already produced an entry
	// for that period.
	MaterializationRecord struct {
		TemplateID int64
		PeriodKey  string
		EntryID    int64
	}

	// Salary is income declared for a nominal month, not a specific date.
	Salary struct {
		ID     int64
		Year   int
		Month  int // 1-12
		Amount Money
	}

	ExtraIncome struct {
		ID          int64
		Date        Date
		Description string
		Amount      Money
	}

	// Invoice is a credit-card invoice for a nominal calendar month
	// ("YYYY-MM"). Only paid invoices participate in the balance fold.
	Invoice struct {
		ID     int64
		CardID string
		Month  string // nominal calendar month, "YYYY-MM"
		Items  []InvoiceItem
		Paid   bool
	}

	InvoiceItem struct {
		ID          int64
		Description string
		Amount      Money
	}

	// PeriodBalance is the folded snapshot for one financial period.
	// Balance = CarryOver + Income - Expenses - PaidInvoices, and CarryOver
	// equals the Balance of the previous period with any facts.
	PeriodBalance struct {
		PeriodKey    string
		Income       Money
		Expenses     Money
		PaidInvoices Money
		CarryOver    Money
		Balance      Money
	}

	Account struct {
		ID             string
		Name           string
		InitialBalance Money
		CreatedAt      time.Time
	}

	// AccountAdjustment is a manual correction, positive or negative.
	// Magnitude is unconstrained: the ledger records facts, it does not
	// enforce overdraft policy.
	AccountAdjustment struct {
		ID        int64
		AccountID string
		Amount    Money
		Reason    string
		Date      Date
	}

	// AccountTransfer is a single fact consumed symmetrically by both
	// accounts: a credit on To always pairs with an equal debit on From.
	AccountTransfer struct {
		ID            string
		FromAccountID string
		ToAccountID   string
		Amount        Money
		Date          Date
	}
)

var (
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrInvalidStatus     = errors.New("invalid entry status")
	ErrInvalidStartDay   = errors.New("start day must be between 1 and 28")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrInvalidPeriodKey  = errors.New("malformed period key")
	ErrSelfTransfer      = errors.New("transfer source and destination must differ")
	ErrEmptyAccountID    = errors.New("empty account id")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s EntryStatus) Validate() error {
	switch s {
	case StatusPaid, StatusPlanned, StatusOverdue:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return e.Status.Validate()
}

func (rt RecurringTemplate) Validate() error {
	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rt.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(rt.Category) == "" {
		return ErrEmptyCategory
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if rt.DayOfMonth < 1 || rt.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	return nil
}

func (s Salary) Validate() error {
	if s.Month < 1 || s.Month > 12 {
		return ErrInvalidMonth
	}
	if s.Year < 1 {
		return errors.New("invalid year")
	}
	return s.Amount.Validate()
}

func (i ExtraIncome) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	return i.Amount.Validate()
}

func (inv Invoice) Validate() error {
	if _, err := ParseMonthKey(inv.Month); err != nil {
		return err
	}
	for _, item := range inv.Items {
		if err := item.Amount.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Total sums the invoice's items.
func (inv Invoice) Total() Money {
	var cents int64
	for _, item := range inv.Items {
		cents += item.Amount.Cents
	}
	return Money{Cents: cents}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyAccountID
	}
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("empty account name")
	}
	return nil
}

func (adj AccountAdjustment) Validate() error {
	if strings.TrimSpace(adj.AccountID) == "" {
		return ErrEmptyAccountID
	}
	if adj.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	return adj.Date.Validate()
}

func (t AccountTransfer) Validate() error {
	if strings.TrimSpace(t.FromAccountID) == "" || strings.TrimSpace(t.ToAccountID) == "" {
		return ErrEmptyAccountID
	}
	if t.FromAccountID == t.ToAccountID {
		return ErrSelfTransfer
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Date.Validate()
}
