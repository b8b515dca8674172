// Package creditreport implements the credit report form: input validation,
// the scoring endpoint client, and the presentation rules for the report view.
package creditreport

// Employment status values accepted by the scoring endpoint.
const (
	EmploymentEmployed     = "employed"
	EmploymentSelfEmployed = "self-employed"
)

// DefaultOccupation is substituted when the occupation field is left blank.
const DefaultOccupation = "Not Specified"

// Request is the JSON body sent to the scoring endpoint. Numeric fields are
// integers; the scoring service owns all derived values.
type Request struct {
	Name                  string `json:"name"`
	Age                   int    `json:"age"`
	Occupation            string `json:"occupation"`
	Salary                int    `json:"salary"`
	CurrentEMI            int    `json:"currentEMI"`
	ExistingLoans         int    `json:"existingLoans"`
	DefaultHistory        bool   `json:"defaultHistory"`
	CreditCardOutstanding int    `json:"creditCardOutstanding"`
	Employment            string `json:"employment"`
}

// Response is the scoring endpoint's reply.
type Response struct {
	Success         bool            `json:"success"`
	CreditStrength  CreditStrength  `json:"creditStrength"`
	DebtAnalysis    DebtAnalysis    `json:"debtAnalysis"`
	RiskFactors     RiskFactors     `json:"riskFactors"`
	LoanEligibility LoanEligibility `json:"loanEligibility"`
	Error           string          `json:"error,omitempty"`
}

// CreditStrength carries the computed score and the server's rating label.
type CreditStrength struct {
	Score  float64 `json:"score"`
	Rating string  `json:"rating"`
}

// DebtAnalysis carries debt-to-income figures. DTIStatus is the server's
// label and is displayed verbatim.
type DebtAnalysis struct {
	DTIRatio        float64 `json:"dtiRatio"`
	DTIStatus       string  `json:"dtiStatus"`
	TotalCurrentEMI float64 `json:"totalCurrentEMI"`
	SafeEMILimit    float64 `json:"safeEMILimit"`
}

// RiskFactors echoes the risk inputs the server based its assessment on.
type RiskFactors struct {
	DefaultHistory        bool    `json:"defaultHistory"`
	CreditCardUtilization float64 `json:"creditCardUtilization"`
	ExistingLoans         int     `json:"existingLoans"`
}

// LoanEligibility is the server's loan offer envelope.
type LoanEligibility struct {
	MinAmount         float64 `json:"minAmount"`
	MaxAmount         float64 `json:"maxAmount"`
	RecommendedTenure string  `json:"recommendedTenure"`
	AvailableEMI      float64 `json:"availableEMI"`
}
