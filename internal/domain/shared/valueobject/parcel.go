package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Parcel is a value object describing the physical shipment package:
// total weight in ounces and outer dimensions in inches.
type Parcel struct {
	weightOz decimal.Decimal
	lengthIn decimal.Decimal
	widthIn  decimal.Decimal
	heightIn decimal.Decimal
}

// Documented fallbacks used when an order item carries no dimension data.
var (
	DefaultItemWeightOz = decimal.NewFromInt(8)
	DefaultItemLengthIn = decimal.NewFromInt(6)
	DefaultItemWidthIn  = decimal.NewFromInt(4)
	DefaultItemHeightIn = decimal.NewFromInt(2)
)

// NewParcel creates a new Parcel. All measurements must be non-negative.
func NewParcel(weightOz, lengthIn, widthIn, heightIn decimal.Decimal) (Parcel, error) {
	for name, v := range map[string]decimal.Decimal{
		"weight": weightOz,
		"length": lengthIn,
		"width":  widthIn,
		"height": heightIn,
	} {
		if v.IsNegative() {
			return Parcel{}, fmt.Errorf("parcel %s cannot be negative", name)
		}
	}
	return Parcel{weightOz: weightOz, lengthIn: lengthIn, widthIn: widthIn, heightIn: heightIn}, nil
}

// EmptyParcel returns a zero-valued parcel
func EmptyParcel() Parcel {
	return Parcel{
		weightOz: decimal.Zero,
		lengthIn: decimal.Zero,
		widthIn:  decimal.Zero,
		heightIn: decimal.Zero,
	}
}

// WeightOz returns the total weight in ounces
func (p Parcel) WeightOz() decimal.Decimal { return p.weightOz }

// LengthIn returns the length in inches
func (p Parcel) LengthIn() decimal.Decimal { return p.lengthIn }

// WidthIn returns the width in inches
func (p Parcel) WidthIn() decimal.Decimal { return p.widthIn }

// HeightIn returns the height in inches
func (p Parcel) HeightIn() decimal.Decimal { return p.heightIn }

// IsZero returns true if the parcel has no weight and no dimensions
func (p Parcel) IsZero() bool {
	return p.weightOz.IsZero() && p.lengthIn.IsZero() && p.widthIn.IsZero() && p.heightIn.IsZero()
}

// Combine folds another parcel into this one: weights sum, length and
// width take the larger footprint, heights stack.
func (p Parcel) Combine(other Parcel) Parcel {
	return Parcel{
		weightOz: p.weightOz.Add(other.weightOz),
		lengthIn: decimal.Max(p.lengthIn, other.lengthIn),
		widthIn:  decimal.Max(p.widthIn, other.widthIn),
		heightIn: p.heightIn.Add(other.heightIn),
	}
}

// WithDefaults replaces any zero measurement with the documented fallback
func (p Parcel) WithDefaults() Parcel {
	out := p
	if out.weightOz.IsZero() {
		out.weightOz = DefaultItemWeightOz
	}
	if out.lengthIn.IsZero() {
		out.lengthIn = DefaultItemLengthIn
	}
	if out.widthIn.IsZero() {
		out.widthIn = DefaultItemWidthIn
	}
	if out.heightIn.IsZero() {
		out.heightIn = DefaultItemHeightIn
	}
	return out
}

// String returns a string representation of the parcel
func (p Parcel) String() string {
	return fmt.Sprintf("%soz %sx%sx%sin",
		p.weightOz.String(), p.lengthIn.String(), p.widthIn.String(), p.heightIn.String())
}

// Equals returns true if both parcels are equal
func (p Parcel) Equals(other Parcel) bool {
	return p.weightOz.Equal(other.weightOz) &&
		p.lengthIn.Equal(other.lengthIn) &&
		p.widthIn.Equal(other.widthIn) &&
		p.heightIn.Equal(other.heightIn)
}
