/*
sample.go - Built-in demo dataset

PURPOSE:
  Provides a small, realistic dataset so the server and the report CLI run
  without any files (-source=sample). It deliberately contains the data
  quality problems the pipeline has to handle:

    - a loan with no borrower and a borrower with no loan (inner join)
    - codes with no lookup entry (left join -> unresolved)
    - an unparseable issue_date (dropped, counted)
    - an emp_length code above 50 (domain rule)
    - loan_status_code on both borrower and loan rows (column collision)

SEE ALSO:
  - memory.go: The Memory source the sample is stored in
  - pipeline/build_test.go: Asserts the diagnostics of this dataset
*/
package source

import "github.com/warp/loan-insights/loan"

// Sample returns the demo dataset as a Memory source.
func Sample() *Memory {
	m := NewMemory("sample")

	m.Put(loan.SourceBorrowers,
		[]string{"loan_id", "addr_state", "emp_length", "annual_inc", "home_ownership", "loan_status_code"},
		[][]string{
			{"1001", "CA", "1", "85000", "RENT", "S1"},
			{"1002", "TX", "3", "62000", "MORTGAGE", "S1"},
			{"1003", "NY", "5", "120000", "OWN", "S1"},
			{"1004", "CA", "10", "97000", "MORTGAGE", "S1"},
			{"1005", "FL", "2", "43000", "RENT", "S1"},
			{"1006", "WA", "7", "110000", "MORTGAGE", "S1"},
			{"1007", "TX", "1", "39000", "RENT", "S1"},
			{"1008", "IL", "4", "71000", "OWN", "S1"},
			{"1009", "CA", "3", "66000", "RENT", "S1"},
			{"1010", "NY", "10", "150000", "MORTGAGE", "S1"},
			{"1011", "GA", "6", "58000", "RENT", "S1"},
			{"1012", "FL", "2", "47000", "RENT", "S1"},
			{"1013", "WA", "8", "103000", "OWN", "S1"},
			{"1014", "IL", "9", "88000", "MORTGAGE", "S1"},
			{"1015", "CA", "99", "52000", "RENT", "S1"}, // emp_length out of domain
			{"1016", "TX", "5", "74000", "MORTGAGE", "S1"},
			{"1017", "NY", "", "91000", "RENT", "S1"},
			{"1018", "GA", "4", "61000", "OWN", "S1"},
			{"1099", "OR", "2", "55000", "RENT", "S1"}, // no loan
		})

	m.Put(loan.SourceLoans,
		[]string{"loan_id", "loan_amnt", "issue_date", "reason_code", "loan_status_code", "term", "int_rate"},
		[][]string{
			{"1001", "10000", "2021-01-14", "R1", "S1", "36", "11.5"},
			{"1002", "15000", "2021-02-03", "R2", "S2", "60", "13.2"},
			{"1003", "25000", "2021-02-21", "R1", "S1", "36", "9.9"},
			{"1004", "8000", "2021-03-09", "R3", "S3", "36", "12.1"},
			{"1005", "5000", "2021-03-30", "R4", "S4", "36", "15.8"},
			{"1006", "30000", "2021-05-11", "R1", "S1", "60", "8.7"},
			{"1007", "3500", "2021-06-02", "R5", "S2", "36", "18.4"},
			{"1008", "12000", "2021-06-17", "R2", "S1", "36", "10.9"},
			{"1009", "9000", "2021-08-25", "R1", "S5", "36", "14.0"},
			{"1010", "35000", "2021-09-13", "R3", "S1", "60", "7.9"},
			{"1011", "7000", "2021-10-01", "R9", "S1", "36", "16.2"}, // unknown reason
			{"1012", "6000", "2021-11-19", "R4", "S3", "36", "17.5"},
			{"1013", "20000", "2022-01-07", "R2", "S1", "60", "9.4"},
			{"1014", "16000", "2022-02-28", "R1", "S2", "36", "11.1"},
			{"1015", "11000", "2022-03-15", "R1", "S1", "36", "12.6"},
			{"1016", "14000", "03/15/2022", "R2", "S1", "36", "10.2"}, // bad date
			{"1017", "4000", "2022-04-04", "R5", "S9", "36", "19.9"}, // unknown status
			{"1018", "13000", "2022-05-23", "R3", "S1", "60", "10.0"},
			{"2001", "9999", "2022-06-01", "R1", "S1", "36", "12.0"}, // no borrower
		})

	m.Put(loan.SourceReasons,
		[]string{"reasoncode", "reason"},
		[][]string{
			{"R1", "debt_consolidation"},
			{"R2", "credit_card"},
			{"R3", "home_improvement"},
			{"R4", "medical"},
			{"R5", "car"},
		})

	m.Put(loan.SourceStatuses,
		[]string{"loan_status_code", "loan_status"},
		[][]string{
			{"S1", "Current"},
			{"S2", "Late (16-30 days)"},
			{"S3", "Late (31-120 days)"},
			{"S4", "Charged Off"},
			{"S5", "Fully Paid"},
		})

	m.Put(loan.SourceEmployment,
		[]string{"emp_length", "emp_length_label"},
		[][]string{
			{"1", "< 1 year"},
			{"2", "1-2 years"},
			{"3", "2-3 years"},
			{"4", "3-4 years"},
			{"5", "4-5 years"},
			{"6", "5-6 years"},
			{"7", "6-7 years"},
			{"8", "7-8 years"},
			{"9", "8-9 years"},
			{"10", "10+ years"},
		})

	return m
}
