package customer

// Dataset column names. Encoded feature columns reuse these names.
const (
	ColCustomerID       = "CustomerID"
	ColAge              = "Age"
	ColGender           = "Gender"
	ColTenure           = "Tenure"
	ColUsageFrequency   = "Usage Frequency"
	ColSupportCalls     = "Support Calls"
	ColPaymentDelay     = "Payment Delay"
	ColSubscriptionType = "Subscription Type"
	ColContractLength   = "Contract Length"
	ColTotalSpend       = "Total Spend"
	ColLastInteraction  = "Last Interaction"
	ColChurn            = "Churn"
)

// ExcludedColumns are never used as features: an identifier, a high-cardinality
// interaction timestamp and the payment delay field.
var ExcludedColumns = []string{ColCustomerID, ColLastInteraction, ColPaymentDelay}

// Gender levels accepted by the binary encoding
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Input is one raw customer record as received by the inference endpoint.
// Numeric fields are pointers so a missing value is distinguishable from zero.
type Input struct {
	Age              *float64 `json:"Age" binding:"required"`
	Gender           string   `json:"Gender" binding:"required"`
	UsageFrequency   *float64 `json:"Usage_Frequency" binding:"required"`
	SupportCalls     *float64 `json:"Support_Calls" binding:"required"`
	TotalSpend       *float64 `json:"Total_Spend" binding:"required"`
	SubscriptionType string   `json:"Subscription_Type" binding:"required"`
	ContractLength   string   `json:"Contract_Length" binding:"required"`
}

// HistoricalRecord is one row of the training dataset. Any field may be missing (nil).
type HistoricalRecord struct {
	CustomerID       string
	Age              *float64
	Gender           *string
	UsageFrequency   *float64
	SupportCalls     *float64
	TotalSpend       *float64
	SubscriptionType *string
	ContractLength   *string

	// Duration is the observed tenure, Event is 1 when churn was observed and 0 when censored
	Duration *float64
	Event    *float64
}

// Float returns a pointer to v, for building records in code and tests
func Float(v float64) *float64 { return &v }

// String returns a pointer to s
func String(s string) *string { return &s }
