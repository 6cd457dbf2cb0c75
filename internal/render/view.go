package render

import (
	"strings"

	"skincare-backend/internal/recommendation"
)

const (
	DefaultCurrency = "₹"
	NoMorning       = "No morning routine provided"
	NoEvening       = "No evening routine provided"
	NotAvailable    = "N/A"
)

// Options tune how a result is presented.
type Options struct {
	Name     string
	Currency string
	// Debug appends the raw service response.
	Debug bool
}

func (o Options) currency() string {
	if o.Currency == "" {
		return DefaultCurrency
	}
	return o.Currency
}

// ProductView is a product with every display default applied.
type ProductView struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	MatchScore  string   `json:"matchScore"`
	Usage       string   `json:"usage"`
	Reason      string   `json:"reason"`
	Ingredients []string `json:"ingredients,omitempty"`
	Price       string   `json:"price"`
	Rating      string   `json:"rating,omitempty"`
}

// View is the display form of a result used by every renderer.
type View struct {
	Source   recommendation.Source `json:"source"`
	Fallback bool                  `json:"fallback"`
	Greeting string                `json:"greeting,omitempty"`
	Summary  string                `json:"summary,omitempty"`
	Products []ProductView         `json:"products"`
	Morning  []string              `json:"morningRoutine"`
	Evening  []string              `json:"eveningRoutine"`
	Tips     []string              `json:"tips,omitempty"`
	Timeline string                `json:"timeline,omitempty"`
}

// BuildView applies display defaults to a result.
func BuildView(res recommendation.Result, opts Options) View {
	v := View{
		Source:   res.Source,
		Fallback: res.IsFallback(),
		Summary:  res.Summary(),
		Products: make([]ProductView, 0, len(res.Products())),
		Morning:  res.Morning(),
		Evening:  res.Evening(),
		Tips:     res.Tips(),
		Timeline: res.Timeline(),
	}
	if name := strings.TrimSpace(opts.Name); name != "" {
		v.Greeting = "Hello " + name + "!"
	}
	for _, p := range res.Products() {
		v.Products = append(v.Products, productView(p, opts.currency()))
	}
	return v
}

func productView(p recommendation.Product, currency string) ProductView {
	price := NotAvailable
	if p.Price != nil && p.Price.Text != "" {
		price = currency + p.Price.Text
	}
	return ProductView{
		Name:        p.DisplayName(),
		Brand:       p.DisplayBrand(),
		Category:    p.DisplayCategory(),
		MatchScore:  p.DisplayMatchScore(),
		Usage:       p.DisplayUsage(),
		Reason:      p.DisplayReason(),
		Ingredients: p.Ingredients(),
		Price:       price,
		Rating:      p.Rating(),
	}
}
