package budget

import "time"

// MonthsUntil returns the number of whole calendar months from now until
// due. A month only counts once the same day and time of day have been
// reached, so Jan 15 → Jul 14 is 5. When the target month is shorter, its
// last day stands in for the missing one, so Jan 31 → Apr 30 is 3. Past due
// dates yield zero or a negative number.
func MonthsUntil(now, due time.Time) int {
	due = due.In(now.Location())
	months := (due.Year()-now.Year())*12 + int(due.Month()) - int(now.Month())
	if months > 0 && addMonths(now, months).After(due) {
		months--
	}
	if months < 0 && addMonths(now, months).Before(due) {
		months++
	}
	return months
}

// addMonths moves t by n calendar months, clamping the day to the end of the
// target month instead of overflowing into the next one like AddDate.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(t.Day(), last)-1)
}

// MonthlyPayment spreads amount evenly over the months left until due, with
// a floor of one month.
func MonthlyPayment(amount float64, now, due time.Time) float64 {
	return amount / float64(max(1, MonthsUntil(now, due)))
}
