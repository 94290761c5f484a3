package rpc

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrderSummary is one row of the order list.
type OrderSummary struct {
	ID          int64  `json:"id"`
	ArticleName string `json:"articleName"`
	Done        bool   `json:"done"`
}

// OpenedEntry is one slot of the opened-orders stack.
type OpenedEntry struct {
	OrderID     int64  `json:"orderId"`
	ArticleName string `json:"articleName"`
	Position    int    `json:"position"`
}

// OrderDetail is the full order record returned by get_order.
type OrderDetail struct {
	ID              int64   `json:"id"`
	ClientName      string  `json:"clientName"`
	ArticleName     string  `json:"articleName"`
	Phone           string  `json:"phone"`
	City            string  `json:"city"`
	Address         string  `json:"address"`
	DeliveryCompany string  `json:"deliveryCompany"`
	DeliveryDate    string  `json:"deliveryDate"` // yyyy-mm-dd
	Description     *string `json:"description"`
	Done            bool    `json:"done"`
}

// Input returns the editable fields of the order.
func (d OrderDetail) Input() OrderInput {
	return OrderInput{
		ClientName:      d.ClientName,
		ArticleName:     d.ArticleName,
		Phone:           d.Phone,
		City:            d.City,
		Address:         d.Address,
		DeliveryCompany: d.DeliveryCompany,
		DeliveryDate:    d.DeliveryDate,
		Description:     d.Description,
	}
}

// DateLayout is the wire format of delivery dates.
const DateLayout = "2006-01-02"

// OrderInput is the payload of save_order and update_order.
type OrderInput struct {
	ClientName      string  `json:"clientName"`
	ArticleName     string  `json:"articleName"`
	Phone           string  `json:"phone"`
	City            string  `json:"city"`
	Address         string  `json:"address"`
	DeliveryCompany string  `json:"deliveryCompany"`
	DeliveryDate    string  `json:"deliveryDate"`
	Description     *string `json:"description,omitempty"`
}

// Normalize trims every field and drops a blank description.
func (in OrderInput) Normalize() OrderInput {
	out := OrderInput{
		ClientName:      strings.TrimSpace(in.ClientName),
		ArticleName:     strings.TrimSpace(in.ArticleName),
		Phone:           strings.TrimSpace(in.Phone),
		City:            strings.TrimSpace(in.City),
		Address:         strings.TrimSpace(in.Address),
		DeliveryCompany: strings.TrimSpace(in.DeliveryCompany),
		DeliveryDate:    strings.TrimSpace(in.DeliveryDate),
	}
	if in.Description != nil {
		if d := strings.TrimSpace(*in.Description); d != "" {
			out.Description = &d
		}
	}
	return out
}

// Validate reports the first missing or malformed field.
func (in OrderInput) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"clientName", in.ClientName},
		{"articleName", in.ArticleName},
		{"phone", in.Phone},
		{"city", in.City},
		{"address", in.Address},
		{"deliveryCompany", in.DeliveryCompany},
		{"deliveryDate", in.DeliveryDate},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(in.DeliveryDate)); err != nil {
		return fmt.Errorf("%w: deliveryDate must be yyyy-mm-dd", ErrInvalidInput)
	}
	return nil
}

// DeliveryCompany is a carrier known to the service.
type DeliveryCompany struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// BaseTheme selects the palette family.
type BaseTheme string

const (
	ThemeLight  BaseTheme = "light"
	ThemeDark   BaseTheme = "dark"
	ThemeCustom BaseTheme = "custom"
)

// ParseBaseTheme maps any casing of a theme name to a BaseTheme; unknown
// names fall back to light.
func ParseBaseTheme(s string) BaseTheme {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark":
		return ThemeDark
	case "custom":
		return ThemeCustom
	default:
		return ThemeLight
	}
}

// MaxConfettiColors bounds the configured confetti palette.
const MaxConfettiColors = 5

// ThemeDTO is the persisted theme: base, colour tokens and confetti palette.
type ThemeDTO struct {
	Base           BaseTheme         `json:"base"`
	Colors         map[string]string `json:"colors"`
	ConfettiColors []string          `json:"confettiColors,omitempty"`
}

// Clone returns a deep copy.
func (t ThemeDTO) Clone() ThemeDTO {
	out := ThemeDTO{Base: t.Base}
	if t.Colors != nil {
		out.Colors = make(map[string]string, len(t.Colors))
		for k, v := range t.Colors {
			out.Colors[k] = v
		}
	}
	if t.ConfettiColors != nil {
		out.ConfettiColors = append([]string(nil), t.ConfettiColors...)
	}
	return out
}

// DefaultCustomConfetti is offered for a custom theme with no saved palette.
var DefaultCustomConfetti = []string{"#ef4444", "#22c55e", "#3b82f6", "#eab308", "#a855f7"}

// DefaultTheme is used until a theme has been saved.
func DefaultTheme() ThemeDTO {
	return ThemeDTO{Base: ThemeLight, Colors: map[string]string{}}
}

// EffectiveConfetti is the palette actually used for celebrations: the saved
// one, else a per-base default.
func (t ThemeDTO) EffectiveConfetti() []string {
	if saved := CleanConfetti(t.ConfettiColors); len(saved) > 0 {
		return saved
	}
	switch t.Base {
	case ThemeDark:
		return []string{"#ffffff"}
	case ThemeCustom:
		return append([]string(nil), DefaultCustomConfetti...)
	default:
		return []string{"#000000"}
	}
}

// CleanConfetti keeps order, drops blanks and case-insensitive duplicates and
// clamps to MaxConfettiColors.
func CleanConfetti(colors []string) []string {
	out := make([]string, 0, MaxConfettiColors)
	for _, c := range colors {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if strings.EqualFold(seen, c) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
		if len(out) == MaxConfettiColors {
			break
		}
	}
	return out
}

// Dashboard payloads. The client passes them through to the views.

type Kpis struct {
	TotalOrders         int64         `json:"totalOrders"`
	OpenOrders          int64         `json:"openOrders"`
	OverdueOpen         int64         `json:"overdueOpen"`
	DueToday            int64         `json:"dueToday"`
	DueNext7            int64         `json:"dueNext7"`
	Done7d              int64         `json:"done7d"`
	Done30d             int64         `json:"done30d"`
	UniqueClients       int64         `json:"uniqueClients"`
	ReturningClientsPct float64       `json:"returningClientsPct"`
	AvgLeadDays         *float64      `json:"avgLeadDays"`
	MedianLeadDays      *float64      `json:"medianLeadDays"`
	TopDeliveryCompany  *TopItemShare `json:"topDeliveryCompany"`
	TopArticle          *NameCount    `json:"topArticle"`
	TopCity             *NameCount    `json:"topCity"`
}

type TopItemShare struct {
	Name     string  `json:"name"`
	Count    int64   `json:"count"`
	SharePct float64 `json:"sharePct"`
}

type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type TimeCount struct {
	Period string `json:"period"`
	Count  int64  `json:"count"`
}

type TimeDoneCount struct {
	Period string `json:"period"`
	Done   bool   `json:"done"`
	Count  int64  `json:"count"`
}

type ScheduleItem struct {
	Week    string `json:"week"`
	Company string `json:"company"`
	Count   int64  `json:"count"`
}

type LeadTimeBin struct {
	LeadDays int64 `json:"leadDays"`
	Count    int64 `json:"count"`
}

type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

type HeatCell struct {
	Weekday int64 `json:"weekday"`
	Hour    int64 `json:"hour"`
	Count   int64 `json:"count"`
}

type OrderExceptionRow struct {
	ID              int64  `json:"id"`
	ArticleName     string `json:"articleName"`
	ClientName      string `json:"clientName"`
	City            string `json:"city"`
	DeliveryCompany string `json:"deliveryCompany"`
	DeliveryDate    string `json:"deliveryDate"`
	AgeDays         int64  `json:"ageDays"`
}

type Exceptions struct {
	OverdueTop10 []OrderExceptionRow `json:"overdueTop10"`
}

// MonthlyClients is encoded on the wire as a [month, new, returning] tuple.
type MonthlyClients struct {
	Month     string
	New       int64
	Returning int64
}

func (m MonthlyClients) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{m.Month, m.New, m.Returning})
}

func (m *MonthlyClients) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("monthly clients tuple: want 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &m.Month); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &m.New); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &m.Returning)
}

type DashboardData struct {
	Kpis                       Kpis             `json:"kpis"`
	OrdersOverTimeWeekly       []TimeCount      `json:"ordersOverTimeWeekly"`
	OrdersOverTimeWeeklyByDone []TimeDoneCount  `json:"ordersOverTimeWeeklyByDone"`
	DeliveryScheduleWeeks      []ScheduleItem   `json:"deliveryScheduleWeeks"`
	LeadTimeHistogram          []LeadTimeBin    `json:"leadTimeHistogram"`
	TopArticles                []NameCount      `json:"topArticles"`
	CompanyShare90d            []NameCount      `json:"companyShare90d"`
	NewVsReturningMonthly      []MonthlyClients `json:"newVsReturningMonthly"`
	BacklogAgeBuckets          []BucketCount    `json:"backlogAgeBuckets"`
	ActivityHeatmap            []HeatCell       `json:"activityHeatmap"`
	Exceptions                 Exceptions       `json:"exceptions"`
}

// StackPolicy decides what opening an already-opened order does to the
// stack. Client and service must agree on it.
type StackPolicy string

const (
	// PolicyAppend keeps insertion order; reopening only focuses.
	PolicyAppend StackPolicy = "append"
	// PolicyMRU moves the reopened order to position 1.
	PolicyMRU StackPolicy = "mru"
)

// ParseStackPolicy accepts "append" (or empty) and "mru".
func ParseStackPolicy(s string) (StackPolicy, error) {
	switch StackPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAppend:
		return PolicyAppend, nil
	case PolicyMRU:
		return PolicyMRU, nil
	default:
		return "", fmt.Errorf("%w: unknown stack policy %q", ErrInvalidInput, s)
	}
}
