package availability

// Defaults applied to products that stand in for a parent through an option.
// Cloned options carry no period configuration of their own.
var (
	optionBreakTime     = 0
	optionBookingPeriod = Period{Value: 12, Unit: Months}
	optionNoticePeriod  = Period{Value: 1, Unit: Hours}
)

// ProductSpec is either a BaseProduct or an OptionProduct.
type ProductSpec interface {
	Product() Product
}

type BaseProduct struct {
	Base Product
}

func (b BaseProduct) Product() Product {
	p := b.Base
	p.Options = nil
	p.Source = SourceBase
	return p
}

type OptionProduct struct {
	OptionProductID string
	Variant         OptionVariant
	ParentID        string
}

func (o OptionProduct) Product() Product {
	return Product{
		ProductID:     o.OptionProductID,
		VariantID:     o.Variant.VariantID,
		ParentID:      o.ParentID,
		Price:         o.Variant.Price,
		Duration:      o.Variant.Duration,
		BreakTime:     optionBreakTime,
		NoticePeriod:  optionNoticePeriod,
		BookingPeriod: optionBookingPeriod,
		Source:        SourceOption,
	}
}

// ResolveSpecs maps each requested product id to what will actually be offered.
//
// optionIDs maps to a variant id and may be keyed either by the parent product id or
// by the option's own product id. A product with a matching selection is replaced by
// its option variants; anything else is offered as configured. Ids missing from
// products are skipped. Neither argument is modified.
func ResolveSpecs(productIDs []string, optionIDs map[string]string, products []Product) []ProductSpec {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		if _, dup := byID[p.ProductID]; !dup {
			byID[p.ProductID] = p
		}
	}

	seen := make(map[string]struct{}, len(productIDs))
	specs := make([]ProductSpec, 0, len(productIDs))
	for _, id := range productIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		p, ok := byID[id]
		if !ok {
			continue
		}
		if options := selectedOptions(p, optionIDs); len(options) > 0 {
			specs = append(specs, options...)
			continue
		}
		specs = append(specs, BaseProduct{Base: p})
	}
	return specs
}

func selectedOptions(p Product, optionIDs map[string]string) []ProductSpec {
	if len(optionIDs) == 0 || len(p.Options) == 0 {
		return nil
	}
	var out []ProductSpec
	for _, opt := range p.Options {
		variantID, ok := optionIDs[opt.ProductID]
		if !ok {
			variantID, ok = optionIDs[p.ProductID]
		}
		if !ok {
			continue
		}
		for _, v := range opt.Variants {
			if v.VariantID == variantID {
				out = append(out, OptionProduct{OptionProductID: opt.ProductID, Variant: v, ParentID: p.ProductID})
				break
			}
		}
	}
	return out
}

// ResolveProducts flattens ResolveSpecs into the ordered product list used for slot generation.
func ResolveProducts(productIDs []string, optionIDs map[string]string, products []Product) []Product {
	specs := ResolveSpecs(productIDs, optionIDs, products)
	out := make([]Product, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Product())
	}
	return out
}

// CountSources splits resolved products into schedule products and option substitutes.
func CountSources(products []Product) (base, options int) {
	for _, p := range products {
		if p.Source == SourceOption {
			options++
		} else {
			base++
		}
	}
	return base, options
}
