package creditreport

import (
	"strings"
)

// Validation messages shown to the user. The rules run in a fixed order and
// stop at the first failure, so the user always sees exactly one message.
const (
	MsgName          = "Please enter your name"
	MsgAge           = "Please enter a valid age (18-100)"
	MsgSalary        = "Please enter a valid monthly salary"
	MsgCurrentEMI    = "Please enter current EMI (enter 0 if none)"
	MsgExistingLoans = "Please enter number of existing loans (enter 0 if none)"
	MsgCardBalance   = "Please enter credit card outstanding (enter 0 if none)"
)

// Form holds the raw user-entered field values before validation. Numeric
// fields stay strings so the validator owns all parsing.
type Form struct {
	Name                  string
	Age                   string
	Occupation            string
	Salary                string
	CurrentEMI            string
	ExistingLoans         string
	CreditCardOutstanding string
	DefaultHistory        bool
	Employment            string
}

// ValidationError carries the user-facing message for a failed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate applies the ordered field rules and returns the first failure,
// or nil when the form is acceptable.
func (f *Form) Validate() *ValidationError {
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "name", Message: MsgName}
	}

	age, ok := parseLeadingInt(f.Age)
	if !ok || age < 18 || age > 100 {
		return &ValidationError{Field: "age", Message: MsgAge}
	}

	salary, ok := parseLeadingInt(f.Salary)
	if !ok || salary <= 0 {
		return &ValidationError{Field: "salary", Message: MsgSalary}
	}

	emi, ok := parseLeadingInt(f.CurrentEMI)
	if !ok || emi < 0 {
		return &ValidationError{Field: "currentEMI", Message: MsgCurrentEMI}
	}

	loans, ok := parseLeadingInt(f.ExistingLoans)
	if !ok || loans < 0 {
		return &ValidationError{Field: "existingLoans", Message: MsgExistingLoans}
	}

	card, ok := parseLeadingInt(f.CreditCardOutstanding)
	if !ok || card < 0 {
		return &ValidationError{Field: "creditCardOutstanding", Message: MsgCardBalance}
	}

	return nil
}

// BuildRequest validates the form and, on success, constructs the request
// with base-10 truncated integers and a trimmed name. Occupation defaults
// to "Not Specified"; employment defaults to "employed".
func (f *Form) BuildRequest() (Request, *ValidationError) {
	if verr := f.Validate(); verr != nil {
		return Request{}, verr
	}

	age, _ := parseLeadingInt(f.Age)
	salary, _ := parseLeadingInt(f.Salary)
	emi, _ := parseLeadingInt(f.CurrentEMI)
	loans, _ := parseLeadingInt(f.ExistingLoans)
	card, _ := parseLeadingInt(f.CreditCardOutstanding)

	occupation := strings.TrimSpace(f.Occupation)
	if occupation == "" {
		occupation = DefaultOccupation
	}

	employment := f.Employment
	if employment != EmploymentSelfEmployed {
		employment = EmploymentEmployed
	}

	return Request{
		Name:                  strings.TrimSpace(f.Name),
		Age:                   age,
		Occupation:            occupation,
		Salary:                salary,
		CurrentEMI:            emi,
		ExistingLoans:         loans,
		DefaultHistory:        f.DefaultHistory,
		CreditCardOutstanding: card,
		Employment:            employment,
	}, nil
}

// parseLeadingInt parses the leading base-10 integer of s, truncating any
// trailing text ("30.5" parses as 30, "abc" does not parse). An empty or
// sign-only prefix is a parse failure.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	i := 0
	negative := false
	if s[0] == '+' || s[0] == '-' {
		negative = s[0] == '-'
		i++
	}

	n := 0
	digits := 0
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}
