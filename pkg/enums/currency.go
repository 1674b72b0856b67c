package enums

// Currency represents the monetary denomination of every amount in the store.
type Currency string

// CurrencyBRL is the only currency; amounts are integer centavos.
const CurrencyBRL Currency = "BRL"

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}
