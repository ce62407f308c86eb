package ledger

// ChartEntry is one account of the default chart. Parents are read-only and
// show the sum of their children.
type ChartEntry struct {
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Class       AccountClass `json:"class"`
	ReadOnly    bool         `json:"read_only"`
	Description string       `json:"description"`
}

// DefaultChart is a small hierarchical chart of accounts. Each digit of the
// code adds one level.
var DefaultChart = []ChartEntry{
	// Assets (1)
	{Code: "1", Name: "Assets", Class: ClassAsset, ReadOnly: true, Description: "Everything the business owns"},
	{Code: "11", Name: "Current Assets", Class: ClassAsset, ReadOnly: true, Description: "Assets used within a year"},
	{Code: "111", Name: "Cash", Class: ClassAsset, Description: "Notes and coins on hand"},
	{Code: "112", Name: "Bank", Class: ClassAsset, Description: "Operating bank account"},
	{Code: "113", Name: "Accounts Receivable", Class: ClassAsset, Description: "Amounts owed by customers"},
	{Code: "12", Name: "Non-current Assets", Class: ClassAsset, ReadOnly: true, Description: "Long-term assets"},
	{Code: "121", Name: "Equipment", Class: ClassAsset, Description: "Tools, computers and furniture"},

	// Liabilities (2)
	{Code: "2", Name: "Liabilities", Class: ClassLiability, ReadOnly: true, Description: "Everything the business owes"},
	{Code: "21", Name: "Current Liabilities", Class: ClassLiability, ReadOnly: true, Description: "Due within a year"},
	{Code: "211", Name: "Accounts Payable", Class: ClassLiability, Description: "Amounts owed to suppliers"},
	{Code: "212", Name: "Tax Payable", Class: ClassLiability, Description: "Tax collected and not yet remitted"},
	{Code: "22", Name: "Loans", Class: ClassLiability, Description: "Long-term borrowing"},

	// Equity (3)
	{Code: "3", Name: "Equity", Class: ClassEquity, ReadOnly: true, Description: "Owner's interest in the business"},
	{Code: "31", Name: "Owner Capital", Class: ClassEquity, Description: "Capital contributed by the owner"},
	{Code: "32", Name: "Retained Earnings", Class: ClassEquity, Description: "Accumulated results of closed periods"},
	{Code: "33", Name: "Profit and Loss", Class: ClassEquity, Description: "Clearing account for period closing"},

	// Income (4)
	{Code: "4", Name: "Income", Class: ClassIncome, ReadOnly: true, Description: "Revenue earned"},
	{Code: "41", Name: "Sales", Class: ClassIncome, Description: "Sale of goods"},
	{Code: "42", Name: "Service Income", Class: ClassIncome, Description: "Services rendered"},
	{Code: "43", Name: "Interest Income", Class: ClassIncome, Description: "Interest earned"},

	// Expenses (5)
	{Code: "5", Name: "Expenses", Class: ClassExpense, ReadOnly: true, Description: "Costs incurred"},
	{Code: "51", Name: "Cost of Sales", Class: ClassExpense, Description: "Direct cost of goods sold"},
	{Code: "52", Name: "Rent", Class: ClassExpense, Description: "Office and storage rent"},
	{Code: "53", Name: "Salaries", Class: ClassExpense, Description: "Employee compensation"},
	{Code: "54", Name: "Utilities", Class: ClassExpense, Description: "Power, water and internet"},
	{Code: "55", Name: "Bank Fees", Class: ClassExpense, Description: "Charges from the bank"},
}

// LookupChartEntry finds a default chart entry by code.
func LookupChartEntry(code string) *ChartEntry {
	for i := range DefaultChart {
		if DefaultChart[i].Code == code {
			return &DefaultChart[i]
		}
	}
	return nil
}

// ChartAccounts turns the default chart into accounts for an owner. IDs are
// left for the store to assign.
func ChartAccounts(ownerID string) []Account {
	out := make([]Account, 0, len(DefaultChart))
	for _, e := range DefaultChart {
		out = append(out, Account{
			OwnerID:    ownerID,
			Name:       e.Name,
			Code:       e.Code,
			Class:      e.Class,
			IsOpen:     true,
			IsReadOnly: e.ReadOnly,
		})
	}
	return out
}
