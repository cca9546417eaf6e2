// Package receipt turns a persisted order into a printable document.
package receipt

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
)

// TimeLayout is how the order timestamp appears on a receipt.
const TimeLayout = "2006-01-02 15:04"

//go:embed templates/receipt.html
var templateFS embed.FS

type Options struct {
	ShopName     string
	Currency     string
	ContactPhone string
	// Location is the zone timestamps are printed in. Nil means UTC.
	Location *time.Location
}

// DefaultOptions describes the shop the service was first built for.
func DefaultOptions() Options {
	return Options{
		ShopName:     "TeamSafi Laundry",
		Currency:     "KES",
		ContactPhone: "+254 700 123 456",
		Location:     time.Local,
	}
}

// View is the display form of an order. Amounts are pre-formatted with two
// decimal places.
type View struct {
	ShopName     string
	Currency     string
	ContactPhone string
	Code         string
	CustomerName string
	PhoneNumber  string
	CreatedAt    string
	Lines        []Line
	TotalAmount  string
}

type Line struct {
	ItemType   string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

type Renderer struct {
	opts Options
	tmpl *template.Template
}

func NewRenderer(opts Options) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/receipt.html")
	if err != nil {
		return nil, fmt.Errorf("receipt: parse template: %w", err)
	}
	return &Renderer{opts: opts, tmpl: tmpl}, nil
}

// Currency is the currency code printed next to every amount.
func (r *Renderer) Currency() string {
	return r.opts.Currency
}

// View builds the display form of order without rendering it.
func (r *Renderer) View(order *entity.Order) View {
	v := View{
		ShopName:     r.opts.ShopName,
		Currency:     r.opts.Currency,
		ContactPhone: r.opts.ContactPhone,
		Code:         order.Code,
		CustomerName: order.CustomerName,
		PhoneNumber:  order.PhoneNumber,
		CreatedAt:    order.CreatedAt.In(r.location()).Format(TimeLayout),
		Lines:        make([]Line, 0, len(order.Items)),
		TotalAmount:  FormatAmount(order.TotalAmount),
	}
	for _, it := range order.Items {
		v.Lines = append(v.Lines, Line{
			ItemType:   string(it.ItemType),
			Quantity:   it.Quantity,
			UnitPrice:  FormatAmount(it.UnitPrice),
			TotalPrice: FormatAmount(it.TotalPrice),
		})
	}
	return v
}

func (r *Renderer) location() *time.Location {
	if r.opts.Location == nil {
		return time.UTC
	}
	return r.opts.Location
}

// Render writes the HTML receipt for order to w. All customer-supplied
// values are escaped.
func (r *Renderer) Render(w io.Writer, order *entity.Order) error {
	if err := r.tmpl.Execute(w, r.View(order)); err != nil {
		return fmt.Errorf("receipt: render order %q: %w", order.Code, err)
	}
	return nil
}

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
