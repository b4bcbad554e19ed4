package payment

import "time"

// BoletoBusinessDays is how long a boleto stays payable.
const BoletoBusinessDays = 3

// AddBusinessDays moves n weekdays forward from t, skipping Saturdays and
// Sundays. Bank holidays are not considered.
func AddBusinessDays(t time.Time, n int) time.Time {
	d := t
	for n > 0 {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return d
}
