package models

import "time"

// Dashboard aggregates purchase, sales and expense totals over a date range.
type Dashboard struct {
	Start          string        `json:"startDate"`
	End            string        `json:"endDate"`
	PurchaseAmount float64       `json:"purchaseAmount"`
	SalesAmount    float64       `json:"salesAmount"`
	ExpenseAmount  float64       `json:"expenseAmount"`
	Income         float64       `json:"income"`
	Series         []MonthSeries `json:"series"`
}

// MonthSeries is one month of the dashboard line chart.
type MonthSeries struct {
	Month    string  `json:"month"`
	Purchase float64 `json:"purchase"`
	Sales    float64 `json:"sales"`
	Expense  float64 `json:"expense"`
}

// DailySummary represents the end-of-day figures archived in MongoDB.
type DailySummary struct {
	Date           time.Time `bson:"date" json:"date"`
	PurchaseAmount float64   `bson:"purchase_amount" json:"purchase_amount"`
	SalesAmount    float64   `bson:"sales_amount" json:"sales_amount"`
	ExpenseAmount  float64   `bson:"expense_amount" json:"expense_amount"`
	Income         float64   `bson:"income" json:"income"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
