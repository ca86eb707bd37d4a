package loan

// =============================================================================
// COLUMN TYPES - Declared, never inferred
// =============================================================================

type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumeric ColumnType = "numeric"
	TypeDate    ColumnType = "date"
	TypeCode    ColumnType = "code"
)

// ColumnDecl declares one required column of a source table.
type ColumnDecl struct {
	Name string
	Type ColumnType
}

// TableDecl declares a source table: its identifier and required columns.
// Columns not listed are still loaded, typed as strings.
type TableDecl struct {
	Source  string
	Columns []ColumnDecl
}

// Required returns the required column names in declaration order.
func (t TableDecl) Required() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// TypeOf returns the declared type of column, or TypeString if undeclared.
func (t TableDecl) TypeOf(column string) ColumnType {
	for _, c := range t.Columns {
		if c.Name == column {
			return c.Type
		}
	}
	return TypeString
}

// =============================================================================
// SCHEMA - Column names of the five sources
// =============================================================================

// Source identifiers. They double as the suffix used when a join has to
// rename a colliding column (e.g. loan_status_code_loans).
const (
	SourceBorrowers  = "borrowers"
	SourceLoans      = "loans"
	SourceReasons    = "reasons"
	SourceStatuses   = "statuses"
	SourceEmployment = "employment"
)

// Schema names every column the pipeline reads.
type Schema struct {
	LoanID string `yaml:"loan_id"`

	// borrowers
	AddrState string `yaml:"addr_state"`
	EmpLength string `yaml:"emp_length"`

	// loans
	LoanAmount string `yaml:"loan_amnt"`
	IssueDate  string `yaml:"issue_date"`
	ReasonCode string `yaml:"reason_code"`
	StatusCode string `yaml:"loan_status_code"`

	// lookups
	ReasonKey      string `yaml:"reason_key"`
	Reason         string `yaml:"reason"`
	StatusKey      string `yaml:"status_key"`
	Status         string `yaml:"loan_status"`
	EmpLengthKey   string `yaml:"emp_length_key"`
	EmpLengthLabel string `yaml:"emp_length_label"`
}

// DefaultSchema returns the column names of the published datasets.
func DefaultSchema() Schema {
	return Schema{
		LoanID:         "loan_id",
		AddrState:      "addr_state",
		EmpLength:      "emp_length",
		LoanAmount:     "loan_amnt",
		IssueDate:      "issue_date",
		ReasonCode:     "reason_code",
		StatusCode:     "loan_status_code",
		ReasonKey:      "reasoncode",
		Reason:         "reason",
		StatusKey:      "loan_status_code",
		Status:         "loan_status",
		EmpLengthKey:   "emp_length",
		EmpLengthLabel: "emp_length_label",
	}
}

// WithDefaults fills empty names from DefaultSchema.
func (s Schema) WithDefaults() Schema {
	d := DefaultSchema()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.LoanID, d.LoanID)
	fill(&s.AddrState, d.AddrState)
	fill(&s.EmpLength, d.EmpLength)
	fill(&s.LoanAmount, d.LoanAmount)
	fill(&s.IssueDate, d.IssueDate)
	fill(&s.ReasonCode, d.ReasonCode)
	fill(&s.StatusCode, d.StatusCode)
	fill(&s.ReasonKey, d.ReasonKey)
	fill(&s.Reason, d.Reason)
	fill(&s.StatusKey, d.StatusKey)
	fill(&s.Status, d.Status)
	fill(&s.EmpLengthKey, d.EmpLengthKey)
	fill(&s.EmpLengthLabel, d.EmpLengthLabel)
	return s
}

// Tables returns the declarations of the five sources, in load order.
func (s Schema) Tables() []TableDecl {
	return []TableDecl{
		s.Borrowers(), s.Loans(), s.Reasons(), s.Statuses(), s.Employment(),
	}
}

func (s Schema) Borrowers() TableDecl {
	return TableDecl{Source: SourceBorrowers, Columns: []ColumnDecl{
		{s.LoanID, TypeCode},
		{s.AddrState, TypeString},
		{s.EmpLength, TypeCode},
	}}
}

func (s Schema) Loans() TableDecl {
	return TableDecl{Source: SourceLoans, Columns: []ColumnDecl{
		{s.LoanID, TypeCode},
		{s.LoanAmount, TypeNumeric},
		{s.IssueDate, TypeDate},
		{s.ReasonCode, TypeCode},
		{s.StatusCode, TypeCode},
	}}
}

func (s Schema) Reasons() TableDecl {
	return TableDecl{Source: SourceReasons, Columns: []ColumnDecl{
		{s.ReasonKey, TypeCode},
		{s.Reason, TypeString},
	}}
}

func (s Schema) Statuses() TableDecl {
	return TableDecl{Source: SourceStatuses, Columns: []ColumnDecl{
		{s.StatusKey, TypeCode},
		{s.Status, TypeString},
	}}
}

func (s Schema) Employment() TableDecl {
	return TableDecl{Source: SourceEmployment, Columns: []ColumnDecl{
		{s.EmpLengthKey, TypeCode},
		{s.EmpLengthLabel, TypeString},
	}}
}

// MaxEmpLength is the largest valid numeric emp_length code.
const MaxEmpLength = 50

// DelinquentStatuses are the statuses counted by the delinquency aggregate,
// in display order.
var DelinquentStatuses = []string{"Late (16-30 days)", "Late (31-120 days)"}
