// Package catalogfile loads plan catalogs from HCL, YAML or JSON files.
package catalogfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"plan-picker/core/catalog"
	"plan-picker/core/types"
	"plan-picker/internal/errors"
)

// Format is a catalog file format
type Format string

const (
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DetectFormat picks the format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return FormatHCL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.Newf(errors.TypeInput, "unsupported catalog file %q (use .hcl, .yaml or .json)", path)
	}
}

// LoadFile reads and validates a catalog file
func LoadFile(path string) (*catalog.Offering, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "read catalog %s", path)
	}
	return Parse(data, path, format)
}

// Parse decodes and validates catalog data
func Parse(data []byte, filename string, format Format) (*catalog.Offering, error) {
	var doc document
	var err error
	switch format {
	case FormatHCL:
		doc, err = decodeHCL(data, filename)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		return nil, errors.Newf(errors.TypeInput, "unsupported catalog format %q", format)
	}
	if err != nil {
		if errors.IsType(err, errors.TypeParsing) {
			return nil, err
		}
		return nil, errors.Parsing("decode catalog "+filename, err)
	}

	offering, err := doc.offering()
	if err != nil {
		return nil, err
	}
	if err := catalog.ValidateOffering(offering); err != nil {
		return nil, errors.Wrapf(errors.TypeCatalog, err, "catalog %s", filename)
	}
	return offering, nil
}

// document is the format-neutral shape of a catalog file
type document struct {
	Currency string              `json:"currency" yaml:"currency"`
	TermsURL string              `json:"terms_url" yaml:"terms_url"`
	Plans    map[string]planSpec `json:"plans" yaml:"plans"`
	Tiers    []catalog.Tier      `json:"tiers" yaml:"tiers"`
}

type planSpec struct {
	Name         string `json:"name" yaml:"name"`
	MonthlyPrice string `json:"monthly_price" yaml:"monthly_price"`
	Amount       amount `json:"amount" yaml:"amount"`
	Currency     string `json:"currency" yaml:"currency"`
}

// amount accepts 5, 5.5 or "5.50"
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*a = amount(s)
	return nil
}

func (d document) offering() (*catalog.Offering, error) {
	defaultCurrency := types.Currency(strings.ToUpper(d.Currency))
	if defaultCurrency == "" {
		defaultCurrency = types.CurrencyUSD
	}

	plans := make(map[types.PlanCode]types.Plan, len(d.Plans))
	for code, spec := range d.Plans {
		plan, err := spec.plan(types.PlanCode(code), defaultCurrency)
		if err != nil {
			return nil, err
		}
		plans[plan.Code] = plan
	}

	c, err := catalog.NewPlanCatalog(plans)
	if err != nil {
		return nil, err
	}

	tiers := d.Tiers
	if len(tiers) == 0 {
		tiers = defaultTiersFor(c)
	}

	return &catalog.Offering{
		Tiers:    tiers,
		Plans:    c,
		TermsURL: d.TermsURL,
	}, nil
}

func (p planSpec) plan(code types.PlanCode, defaultCurrency types.Currency) (types.Plan, error) {
	currency := defaultCurrency
	if p.Currency != "" {
		currency = types.Currency(strings.ToUpper(p.Currency))
	}

	plan := types.Plan{
		Code:     code,
		Name:     p.Name,
		Currency: currency,
		Prices:   types.Prices{Monthly: p.MonthlyPrice},
	}

	if p.Amount != "" {
		d, err := decimal.NewFromString(string(p.Amount))
		if err != nil {
			return types.Plan{}, errors.Parsing(fmt.Sprintf("plan %s: amount %q", code, p.Amount), err)
		}
		plan.Prices.MonthlyAmount = decimal.NewNullDecimal(d)
		if plan.Prices.Monthly == "" {
			plan.Prices.Monthly = types.FormatPrice(d, currency)
		}
	}
	return plan, nil
}

// defaultTiersFor keeps the built-in tiers the catalog prices, in their
// usual order, and adds a plain tier for any other tier code
func defaultTiersFor(c *catalog.PlanCatalog) []catalog.Tier {
	priced := make(map[types.TierCode]bool)
	for _, t := range c.Tiers() {
		priced[t] = true
	}

	var tiers []catalog.Tier
	for _, t := range catalog.DefaultTiers() {
		if priced[t.Code] {
			tiers = append(tiers, t)
			delete(priced, t.Code)
		}
	}

	title := cases.Title(language.English)
	for _, code := range c.Tiers() {
		if priced[code] {
			tiers = append(tiers, catalog.Tier{Code: code, Name: title.String(string(code))})
		}
	}
	return tiers
}

// HCL representation

type hclDocument struct {
	Currency string    `hcl:"currency,optional"`
	TermsURL string    `hcl:"terms_url,optional"`
	Plans    []hclPlan `hcl:"plan,block"`
	Tiers    []hclTier `hcl:"tier,block"`
}

type hclPlan struct {
	Code         string `hcl:"code,label"`
	Name         string `hcl:"name,optional"`
	MonthlyPrice string `hcl:"monthly_price,optional"`
	Amount       string `hcl:"amount,optional"`
	Currency     string `hcl:"currency,optional"`
}

type hclTier struct {
	Code          string   `hcl:"code,label"`
	Name          string   `hcl:"name"`
	PriceSuffix   string   `hcl:"price_suffix,optional"`
	License       string   `hcl:"license,optional"`
	LicenseDetail string   `hcl:"license_detail,optional"`
	Features      []string `hcl:"features,optional"`
	Highlighted   bool     `hcl:"highlighted,optional"`
	ContactURL    string   `hcl:"contact_url,optional"`
	CallToAction  string   `hcl:"call_to_action,optional"`
}

func decodeHCL(data []byte, filename string) (document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return document{}, errors.Parsing("parse "+filename, diags)
	}

	var raw hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return document{}, errors.Parsing("decode "+filename, diags)
	}

	doc := document{
		Currency: raw.Currency,
		TermsURL: raw.TermsURL,
		Plans:    make(map[string]planSpec, len(raw.Plans)),
	}
	for _, p := range raw.Plans {
		if _, dup := doc.Plans[p.Code]; dup {
			return document{}, errors.Newf(errors.TypeParsing, "%s: plan %q declared twice", filename, p.Code)
		}
		doc.Plans[p.Code] = planSpec{
			Name:         p.Name,
			MonthlyPrice: p.MonthlyPrice,
			Amount:       amount(p.Amount),
			Currency:     p.Currency,
		}
	}
	for _, t := range raw.Tiers {
		doc.Tiers = append(doc.Tiers, catalog.Tier{
			Code:          types.TierCode(t.Code),
			Name:          t.Name,
			PriceSuffix:   t.PriceSuffix,
			License:       t.License,
			LicenseDetail: t.LicenseDetail,
			Features:      t.Features,
			Highlighted:   t.Highlighted,
			ContactURL:    t.ContactURL,
			CallToAction:  t.CallToAction,
		})
	}
	return doc, nil
}
