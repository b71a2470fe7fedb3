package rollup

// Efficiency is actual hours over declarable (budgeted) hours as a
// percentage. 100 means exactly on budget, below 100 under budget, above
// 100 over budget. Undefined when nothing was budgeted; reported as 0 and
// the caller decides how to display that.
func Efficiency(actualSeconds int64, declarableHours float64) float64 {
	if declarableHours <= 0 {
		return 0
	}
	return Hours(actualSeconds) / declarableHours * 100
}

// OverBudget labels the ratio; only meaningful when declarable hours > 0
func OverBudget(actualSeconds int64, declarableHours float64) bool {
	return declarableHours > 0 && Efficiency(actualSeconds, declarableHours) > 100
}

// BudgetedValue is the currency projection of the budgeted hours.
// Derived, never stored.
func BudgetedValue(declarableHours, hourlyRate float64) float64 {
	return declarableHours * hourlyRate
}

// ActualValue is the currency projection of tracked time.
// Derived, never stored.
func ActualValue(actualSeconds int64, hourlyRate float64) float64 {
	return Hours(actualSeconds) * hourlyRate
}
