package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lavibaby-storefront/internal/domain"
)

// ProductSaver validates and stores one product.
type ProductSaver interface {
	Save(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalogue spreadsheets exported from the storefront
// admin. Header names are case-insensitive:
//
//	id,name,price,originalPrice,image,category,sizes,colors,rating,description,stock
//
// Prices accept "89,90" or "89.90". sizes and colors are separated by "|".
// A row with an empty name continues the product above it and only
// contributes extra sizes and colors.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductSaver
}

func NewCSVImporter(r io.Reader, products ProductSaver) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, products: products}
}

// Run parses every row and saves the products in file order. It stops at
// the first invalid product.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("missing name column")
	}
	if _, ok := index["price"]; !ok {
		return 0, errors.New("missing price column")
	}

	var (
		current  *domain.Product
		imported int
		line     = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		if pick(record, index, "name") == "" {
			if current == nil {
				return imported, fmt.Errorf("row %d: continuation row before any product", line)
			}
			current.Sizes = appendUnique(current.Sizes, splitList(pick(record, index, "sizes"))...)
			current.Colors = appendUnique(current.Colors, splitList(pick(record, index, "colors"))...)
			continue
		}

		if current != nil {
			if err := i.save(ctx, current); err != nil {
				return imported, err
			}
			imported++
		}
		current, err = parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, p *domain.Product) error {
	if _, err := i.products.Save(ctx, *p); err != nil {
		return fmt.Errorf("save product %q: %w", p.Name, err)
	}
	return nil
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	p := &domain.Product{
		Name:        pick(record, index, "name"),
		Image:       pick(record, index, "image"),
		Category:    pick(record, index, "category"),
		Description: pick(record, index, "description"),
		Sizes:       appendUnique(nil, splitList(pick(record, index, "sizes"))...),
		Colors:      appendUnique(nil, splitList(pick(record, index, "colors"))...),
	}
	var err error
	if v := pick(record, index, "id"); v != "" {
		if p.ID, err = strconv.ParseInt(v, 10, 64); err != nil || p.ID <= 0 {
			return nil, fmt.Errorf("invalid id %q", v)
		}
	}
	if p.Price, err = domain.ParseMoney(pick(record, index, "price")); err != nil {
		return nil, fmt.Errorf("invalid price for %q: %w", p.Name, err)
	}
	if v := pick(record, index, "originalprice"); v != "" {
		if p.OriginalPrice, err = domain.ParseMoney(v); err != nil {
			return nil, fmt.Errorf("invalid original price for %q: %w", p.Name, err)
		}
	}
	if v := pick(record, index, "rating"); v != "" {
		if p.Rating, err = strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64); err != nil {
			return nil, fmt.Errorf("invalid rating %q", v)
		}
	}
	if v := pick(record, index, "stock"); v != "" {
		if p.Stock, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid stock %q", v)
		}
	}
	return p, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, have := range dst {
			if have == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
