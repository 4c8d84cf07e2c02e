package orderbook

import (
	"fmt"
	"strings"
)

// Asset is one of the tradable symbols. The set is closed: adding a symbol
// means adding a member here.
type Asset uint8

const (
	ADA Asset = iota + 1
	BTC
	DOT
	ETH
	GRIN
	USD
)

var assetNames = map[Asset]string{
	ADA:  "ADA",
	BTC:  "BTC",
	DOT:  "DOT",
	ETH:  "ETH",
	GRIN: "GRIN",
	USD:  "USD",
}

var assetsByName = func() map[string]Asset {
	m := make(map[string]Asset, len(assetNames))
	for a, name := range assetNames {
		m[name] = a
	}
	return m
}()

// Assets returns every known asset in declaration order.
func Assets() []Asset {
	return []Asset{ADA, BTC, DOT, ETH, GRIN, USD}
}

// ParseAsset matches s case-insensitively against the known symbols.
func ParseAsset(s string) (Asset, error) {
	if a, ok := assetsByName[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownAsset, s)
}

func (a Asset) String() string {
	if name, ok := assetNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Asset(%d)", uint8(a))
}

func (a Asset) Valid() bool {
	_, ok := assetNames[a]
	return ok
}

// MarshalText encodes the zero Asset as an empty string.
func (a Asset) MarshalText() ([]byte, error) {
	if a == 0 {
		return []byte{}, nil
	}
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAsset, uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Asset) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*a = 0
		return nil
	}
	v, err := ParseAsset(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Pair identifies one order book: Base is the asset being bought or sold,
// Quote is the asset the price is expressed in.
type Pair struct {
	Base  Asset `json:"order_asset"`
	Quote Asset `json:"price_asset"`
}

func NewPair(base, quote Asset) Pair {
	return Pair{Base: base, Quote: quote}
}

// ParsePair parses the "BASE/QUOTE" form produced by Pair.String.
func ParsePair(s string) (Pair, error) {
	base, quote, ok := strings.Cut(s, "/")
	if !ok {
		return Pair{}, fmt.Errorf("%w: %q", ErrInvalidPair, s)
	}
	b, err := ParseAsset(base)
	if err != nil {
		return Pair{}, err
	}
	q, err := ParseAsset(quote)
	if err != nil {
		return Pair{}, err
	}
	p := NewPair(b, q)
	if err := p.Validate(); err != nil {
		return Pair{}, err
	}
	return p, nil
}

func (p Pair) Validate() error {
	if !p.Base.Valid() || !p.Quote.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPair, p)
	}
	if p.Base == p.Quote {
		return fmt.Errorf("%w: %s", ErrInvalidPair, p)
	}
	return nil
}

func (p Pair) String() string {
	return p.Base.String() + "/" + p.Quote.String()
}
