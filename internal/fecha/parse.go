package fecha

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Resolve finds the date expression in a Spanish query and resolves it
// relative to the current time.
func Resolve(query string) (Resolution, error) {
	return resolve(query, time.Now())
}

// ResolveAt resolves a query relative to an explicit reference time.
func ResolveAt(query string, now time.Time) (Resolution, error) {
	return resolve(query, now)
}

const (
	monthAlt   = `enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre`
	weekdayAlt = `lunes|martes|miercoles|jueves|viernes|sabado|domingo`
	ordinalAlt = `primer|primero|segundo|tercer|tercero|cuarto|quinto|ultimo`
	countAlt   = `\d+|una|un|dos|tres|cuatro|cinco|seis|siete|ocho|nueve|diez|once|doce`
)

var (
	// "del 1 al 15 de abril", "del 1 de marzo al 15 de abril de 2025"
	rangeDelPattern = regexp.MustCompile(`\bdel\s+(\d{1,2})(?:\s+de\s+(` + monthAlt + `))?\s+al\s+(\d{1,2})\s+de\s+(` + monthAlt + `)(?:\s+(?:de|del)\s+(\d{4}))?`)
	// "entre el 1 de marzo y el 15 de abril (de 2025)"
	rangeEntrePattern = regexp.MustCompile(`\bentre\s+el\s+(\d{1,2})\s+de\s+(` + monthAlt + `)(?:\s+(?:de|del)\s+(\d{4}))?\s+y\s+el\s+(\d{1,2})\s+de\s+(` + monthAlt + `)(?:\s+(?:de|del)\s+(\d{4}))?`)
	// "del 2025-04-01 al 2025-04-10"
	isoRangePattern = regexp.MustCompile(`\b(?:del|desde el?)\s+(\d{4})-(\d{2})-(\d{2})\s+(?:al|hasta el?)\s+(\d{4})-(\d{2})-(\d{2})\b`)
	// "2025-04-29"
	isoPattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// "el primer lunes de mayo", "ultimo viernes de abril de 2025"
	ordinalPattern = regexp.MustCompile(`\b(` + ordinalAlt + `)\s+(` + weekdayAlt + `)\s+de\s+(` + monthAlt + `)(?:\s+(?:de|del)\s+(\d{4}))?`)
	// "29 de abril", "el dia 29 de abril de 2025"
	dayMonthPattern = regexp.MustCompile(`\b(\d{1,2})\s+de\s+(` + monthAlt + `)(?:\s+(?:de|del)\s+(\d{4}))?`)
	// "hace 3 dias"
	haceDiasPattern = regexp.MustCompile(`\bhace\s+(` + countAlt + `)\s+dias?\b`)
	// "ultimas 2 semanas", "las ultimas dos semanas"
	lastWeeksPattern = regexp.MustCompile(`\bultimas?\s+(` + countAlt + `)\s+semanas\b`)
	// "ultimos 3 meses"
	lastMonthsPattern = regexp.MustCompile(`\bultimos?\s+(` + countAlt + `)\s+meses\b`)
	// "el mes de abril", "en abril", "durante abril", "abril de 2024"
	monthOfPattern   = regexp.MustCompile(`\b(?:mes\s+de|en|durante)\s+(?:el\s+mes\s+de\s+)?(` + monthAlt + `)\b(?:\s+(?:de|del)\s+(\d{4}))?`)
	monthYearPattern = regexp.MustCompile(`\b(` + monthAlt + `)\s+(?:de|del)\s+(\d{4})\b`)
	// "el lunes pasado"
	weekdayPastPattern = regexp.MustCompile(`\b(` + weekdayAlt + `)\s+pasad[oa]\b`)
	// bare year, last resort
	yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

	anteayerPattern = regexp.MustCompile(`\b(?:antes\s+de\s+ayer|anteayer|antier)\b`)
	ayerPattern     = regexp.MustCompile(`\bayer\b`)
	hoyPattern      = regexp.MustCompile(`\bhoy\b`)
	mananaPattern   = regexp.MustCompile(`\bmanana\b`)
)

var months = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August,
	"septiembre": time.September, "setiembre": time.September,
	"octubre": time.October, "noviembre": time.November, "diciembre": time.December,
}

var weekdays = map[string]time.Weekday{
	"lunes": time.Monday, "martes": time.Tuesday, "miercoles": time.Wednesday,
	"jueves": time.Thursday, "viernes": time.Friday,
	"sabado": time.Saturday, "domingo": time.Sunday,
}

var ordinals = map[string]int{
	"primer": 1, "primero": 1, "segundo": 2, "tercer": 3, "tercero": 3,
	"cuarto": 4, "quinto": 5, "ultimo": -1,
}

var countWords = map[string]int{
	"una": 1, "un": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
	"once": 11, "doce": 12,
}

// LastMonth returns the previous calendar month relative to now. It is the
// documented default window when a query carries no date expression.
func LastMonth(now time.Time) Resolution {
	end := firstOfMonth(toDay(now)).AddDate(0, 0, -1)
	return Range(firstOfMonth(end), end)
}

// resolve matches the query against the supported Spanish date grammar,
// most specific patterns first, and resolves relative to now. The query may
// contain arbitrary surrounding text.
func resolve(query string, now time.Time) (Resolution, error) {
	q := normalize(query)
	today := toDay(now)

	if m := rangeDelPattern.FindStringSubmatch(q); m != nil {
		return resolveRangeDel(m, today)
	}
	if m := rangeEntrePattern.FindStringSubmatch(q); m != nil {
		return resolveRangeEntre(m, today)
	}
	if m := isoRangePattern.FindStringSubmatch(q); m != nil {
		return resolveISORange(m)
	}
	if m := isoPattern.FindStringSubmatch(q); m != nil {
		return resolveISO(m)
	}
	if m := ordinalPattern.FindStringSubmatch(q); m != nil {
		return resolveOrdinal(m, today)
	}
	if m := dayMonthPattern.FindStringSubmatch(q); m != nil {
		return resolveDayMonth(m, today)
	}
	if m := haceDiasPattern.FindStringSubmatch(q); m != nil {
		n := parseCount(m[1])
		return Single(today.AddDate(0, 0, -n)), nil
	}
	if m := lastWeeksPattern.FindStringSubmatch(q); m != nil {
		n := parseCount(m[1])
		monday := startOfWeek(today)
		return Range(monday.AddDate(0, 0, -7*n), monday.AddDate(0, 0, -1)), nil
	}
	if containsAny(q, "semana pasada", "ultima semana") {
		start := startOfWeek(today).AddDate(0, 0, -7)
		return Range(start, start.AddDate(0, 0, 6)), nil
	}
	if strings.Contains(q, "proxima semana") {
		start := startOfWeek(today).AddDate(0, 0, 7)
		return Range(start, start.AddDate(0, 0, 6)), nil
	}
	if strings.Contains(q, "esta semana") {
		start := startOfWeek(today)
		return Range(start, start.AddDate(0, 0, 6)), nil
	}
	if m := lastMonthsPattern.FindStringSubmatch(q); m != nil {
		n := parseCount(m[1])
		first := firstOfMonth(today)
		return Range(first.AddDate(0, -n, 0), first.AddDate(0, 0, -1)), nil
	}
	if containsAny(q, "mes pasado", "ultimo mes") {
		end := firstOfMonth(today).AddDate(0, 0, -1)
		return Range(firstOfMonth(end), end), nil
	}
	if strings.Contains(q, "este mes") {
		first := firstOfMonth(today)
		return Range(first, first.AddDate(0, 1, -1)), nil
	}
	if m := monthOfPattern.FindStringSubmatch(q); m != nil {
		return monthRange(months[m[1]], parseYear(m[2], today)), nil
	}
	if m := monthYearPattern.FindStringSubmatch(q); m != nil {
		return monthRange(months[m[1]], parseYear(m[2], today)), nil
	}
	if m := weekdayPastPattern.FindStringSubmatch(q); m != nil {
		return Single(previousWeekday(today, weekdays[m[1]])), nil
	}
	if anteayerPattern.MatchString(q) {
		return Single(today.AddDate(0, 0, -2)), nil
	}
	if ayerPattern.MatchString(q) {
		return Single(today.AddDate(0, 0, -1)), nil
	}
	if hoyPattern.MatchString(q) {
		return Single(today), nil
	}
	if isTomorrow(q) {
		return Single(today.AddDate(0, 0, 1)), nil
	}
	if strings.Contains(q, "este ano") {
		return yearRange(today.Year()), nil
	}
	if strings.Contains(q, "ano pasado") {
		return yearRange(today.Year() - 1), nil
	}
	if m := yearPattern.FindStringSubmatch(q); m != nil {
		year, _ := strconv.Atoi(m[1])
		return yearRange(year), nil
	}

	return Resolution{}, ErrNoDateExpression
}

func resolveRangeDel(m []string, today time.Time) (Resolution, error) {
	endMonth := months[m[4]]
	startMonth := endMonth
	if m[2] != "" {
		startMonth = months[m[2]]
	}
	year := parseYear(m[5], today)

	start, err := dayOfMonth(atoi(m[1]), startMonth, year)
	if err != nil {
		return Resolution{}, err
	}
	end, err := dayOfMonth(atoi(m[3]), endMonth, year)
	if err != nil {
		return Resolution{}, err
	}
	// "del 1 de diciembre al 15 de enero" crosses a year boundary
	if end.Before(start) && m[5] == "" {
		end = end.AddDate(1, 0, 0)
	}
	return Range(start, end), nil
}

func resolveRangeEntre(m []string, today time.Time) (Resolution, error) {
	startYear := parseYear(m[3], today)
	endYear := parseYear(m[6], today)
	if m[3] != "" && m[6] == "" {
		endYear = startYear
	}

	start, err := dayOfMonth(atoi(m[1]), months[m[2]], startYear)
	if err != nil {
		return Resolution{}, err
	}
	end, err := dayOfMonth(atoi(m[4]), months[m[5]], endYear)
	if err != nil {
		return Resolution{}, err
	}
	if end.Before(start) && m[3] == "" && m[6] == "" {
		end = end.AddDate(1, 0, 0)
	}
	return Range(start, end), nil
}

func resolveISORange(m []string) (Resolution, error) {
	start, err := dayOfMonth(atoi(m[3]), time.Month(atoi(m[2])), atoi(m[1]))
	if err != nil {
		return Resolution{}, err
	}
	end, err := dayOfMonth(atoi(m[6]), time.Month(atoi(m[5])), atoi(m[4]))
	if err != nil {
		return Resolution{}, err
	}
	return Range(start, end), nil
}

func resolveISO(m []string) (Resolution, error) {
	d, err := dayOfMonth(atoi(m[3]), time.Month(atoi(m[2])), atoi(m[1]))
	if err != nil {
		return Resolution{}, err
	}
	return Single(d), nil
}

func resolveDayMonth(m []string, today time.Time) (Resolution, error) {
	d, err := dayOfMonth(atoi(m[1]), months[m[2]], parseYear(m[3], today))
	if err != nil {
		return Resolution{}, err
	}
	return Single(d), nil
}

// dayOfMonth builds a UTC date and rejects days that do not exist in the
// given month, such as 31 de abril.
func dayOfMonth(day int, month time.Month, year int) (time.Time, error) {
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day %d out of range", day)
	}
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("month %d out of range", int(month))
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("no day %d in %s %d", day, month, year)
	}
	return t, nil
}

func monthRange(month time.Month, year int) Resolution {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Range(first, first.AddDate(0, 1, -1))
}

func yearRange(year int) Resolution {
	return Range(
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	)
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return toDay(t).AddDate(0, 0, -offset)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// previousWeekday returns the most recent occurrence of wd strictly before
// today.
func previousWeekday(today time.Time, wd time.Weekday) time.Time {
	diff := (int(today.Weekday()) - int(wd) + 7) % 7
	if diff == 0 {
		diff = 7
	}
	return today.AddDate(0, 0, -diff)
}

func parseYear(s string, today time.Time) int {
	if s == "" {
		return today.Year()
	}
	return atoi(s)
}

func parseCount(s string) int {
	if n, ok := countWords[s]; ok {
		return n
	}
	return atoi(s)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// isTomorrow matches "manana" as a day reference while skipping times of
// day like "9 de la manana" or "esta manana". A bare trailing "de manana"
// ("la reunion de manana") still means tomorrow.
func isTomorrow(q string) bool {
	if !mananaPattern.MatchString(q) {
		return false
	}
	return !containsAny(q, "la manana", "esta manana")
}

func containsAny(q string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(q, s) {
			return true
		}
	}
	return false
}

var accentFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u', 'ñ': 'n',
}

// normalize lowercases the query and folds Spanish accents so matching is
// accent-insensitive ("último" == "ultimo", "mañana" == "manana").
func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if f, ok := accentFold[r]; ok {
			return f
		}
		return r
	}, s)
}
