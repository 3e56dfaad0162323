package core

// Catalog is the static reference data: categories and accounts.
type Catalog struct {
	Categories []Category
	Accounts   []Account
}

// DefaultCatalog returns the built-in categories and accounts.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: []Category{
			{ID: "1", Name: "Food", Kind: KindExpense, Icon: "🍔", Color: "orange"},
			{ID: "2", Name: "Groceries", Kind: KindExpense, Icon: "🛒", Color: "green"},
			{ID: "3", Name: "Transport", Kind: KindExpense, Icon: "🚗", Color: "blue"},
			{ID: "4", Name: "Home Bills", Kind: KindExpense, Icon: "🏠", Color: "purple"},
			{ID: "5", Name: "Health", Kind: KindExpense, Icon: "🏥", Color: "red"},
			{ID: "6", Name: "Leisure", Kind: KindExpense, Icon: "🎭", Color: "yellow"},
			{ID: "7", Name: "Subscriptions", Kind: KindExpense, Icon: "📺", Color: "indigo"},
			{ID: "8", Name: "Investments", Kind: KindExpense, Icon: "📈", Color: "teal"},
			{ID: "9", Name: "Salary", Kind: KindIncome, Icon: "💰", Color: "emerald"},
			{ID: "10", Name: "Extra", Kind: KindIncome, Icon: "💵", Color: "lime"},
			{ID: "11", Name: "Other", Kind: KindBoth, Icon: "📦", Color: "gray"},
		},
		Accounts: []Account{
			{ID: "a1", Name: "Cash (Household)", Kind: Cash, Owner: Household},
			{ID: "a2", Name: "Checking (A)", Kind: Transfer, Owner: UserA},
			{ID: "a3", Name: "Checking (B)", Kind: Transfer, Owner: UserB},
			{ID: "a4", Name: "Card (A)", Kind: Credit, Owner: UserA},
			{ID: "a5", Name: "Card (B)", Kind: Credit, Owner: UserB},
		},
	}
}

// Category returns the category with the given id.
func (c Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Account returns the account with the given id.
func (c Catalog) Account(id string) (Account, bool) {
	for _, a := range c.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// CategoryName returns the category's name, or "Other" for unknown ids.
func (c Catalog) CategoryName(id string) string {
	if cat, ok := c.Category(id); ok {
		return cat.Name
	}
	return "Other"
}

// AppliesTo reports whether the category can be used for transactions of type t.
func (c Category) AppliesTo(t TransactionType) bool {
	switch c.Kind {
	case KindBoth:
		return true
	case KindIncome:
		return t == Income
	case KindExpense:
		return t == Expense
	}
	return false
}
