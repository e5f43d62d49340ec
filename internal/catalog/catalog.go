// Package catalog holds the static configuration for every logical
// metric the pipeline collects: business-cycle classification,
// category, and how the metric's values are obtained (a curated FRED
// series id, a ranked search, or a derived computation). The tables
// are assembled into an immutable map once at package init and are
// read-only at runtime.
package catalog

import (
	"sort"

	"github.com/macrolens/harmonizer/models"
)

// metricNames is the full set of metrics collected per run.
var metricNames = []string{
	"10-Year Treasury Yield",
	"30-Year Fixed Rate Mortgage Average",
	"30-Year Mortgage Rate",
	"All Employees: Manufacturing",
	"Average Hourly Earnings",
	"Average Hourly Earnings of All Employees",
	"Average Weekly Hours",
	"Average Weekly Hours of Production Employees: Manufacturing",
	"Building Permits",
	"Capacity Utilization (Mfg)",
	"Case-Shiller Home Price Index",
	"Chicago Fed National Activity Index",
	"Commercial & Industrial Loans",
	"Consumer Confidence Index",
	"Continuing Claims",
	"Continuing Jobless Claims",
	"Core CPI",
	"Core CPI Year-over-Year",
	"Core PCE Price Index",
	"Core Personal Consumption Expenditures",
	"CPI All Items",
	"CPI Energy",
	"CPI Year-over-Year",
	"Durable Goods Orders",
	"Durable Goods Orders MoM",
	"E-commerce Retail Sales",
	"Employment Population Ratio",
	"Employment to Population Ratio",
	"Existing Home Sales",
	"Federal Funds Rate",
	"Gasoline Prices",
	"GDP Growth Rate",
	"Housing Starts",
	"Industrial Production",
	"Industrial Production Index",
	"Industrial Production YoY",
	"Initial Jobless Claims",
	"Inventories to Sales Ratio",
	"JOLTS Hires",
	"JOLTS Job Openings",
	"JOLTS Quits",
	"Labor Force Participation Rate",
	"Leading Economic Index",
	"Manufacturers New Orders: Durable Goods",
	"Manufacturing PMI",
	"Michigan Consumer Sentiment",
	"Months Supply of Homes",
	"New Home Sales",
	"Nonfarm Payrolls",
	"PCE Price Index",
	"PCE Price Index YoY",
	"Personal Consumption Expenditures",
	"Personal Savings Rate",
	"PPI All Commodities",
	"PPI Final Demand",
	"Producer Price Index: Final Demand",
	"Real Disposable Personal Income",
	"Real Gross Domestic Product",
	"Retail Sales",
	"Retail Sales Ex-Auto",
	"Retail Sales MoM",
	"Retail Sales: Food Services",
	"Total Construction Spending",
	"Total Consumer Credit Outstanding",
	"Total Nonfarm Payrolls",
	"U-6 Unemployment Rate",
	"Unemployment Rate",
	"US / Euro Foreign Exchange Rate",
	"US Dollar Index",
	"Yield Curve (10yr-2yr)",
}

var typeMap = map[string]models.MetricType{
	// Leading
	"10-Year Treasury Yield": models.Leading,
	"Yield Curve (10yr-2yr)": models.Leading,
	"Building Permits":       models.Leading,
	"Consumer Confidence Index": models.Leading,
	"Leading Economic Index":    models.Leading,
	"Manufacturers New Orders: Durable Goods": models.Leading,
	"Manufacturing PMI":           models.Leading,
	"Michigan Consumer Sentiment": models.Leading,
	"Average Weekly Hours":        models.Leading,
	"Average Weekly Hours of Production Employees: Manufacturing": models.Leading,
	// Coincident
	"Industrial Production":          models.Coincident,
	"Industrial Production Index":    models.Coincident,
	"Real Gross Domestic Product":    models.Coincident,
	"Nonfarm Payrolls":               models.Coincident,
	"Total Nonfarm Payrolls":         models.Coincident,
	"Employment to Population Ratio": models.Coincident,
	"Employment Population Ratio":    models.Coincident,
	"Retail Sales":                   models.Coincident,
	"Retail Sales Ex-Auto":           models.Coincident,
	"Retail Sales: Food Services":    models.Coincident,
	"Capacity Utilization (Mfg)":     models.Coincident,
	"Commercial & Industrial Loans":  models.Coincident,
	"Total Construction Spending":    models.Coincident,
	"Total Consumer Credit Outstanding": models.Coincident,
	"US Dollar Index":                   models.Coincident,
	"US / Euro Foreign Exchange Rate":   models.Coincident,
	// Lagging
	"Unemployment Rate":          models.Lagging,
	"U-6 Unemployment Rate":      models.Lagging,
	"Continuing Claims":          models.Lagging,
	"Continuing Jobless Claims":  models.Lagging,
	"Core CPI":                   models.Lagging,
	"Core CPI Year-over-Year":    models.Lagging,
	"CPI All Items":              models.Lagging,
	"CPI Energy":                 models.Lagging,
	"CPI Year-over-Year":         models.Lagging,
	"PCE Price Index":            models.Lagging,
	"PCE Price Index YoY":        models.Lagging,
	"Core PCE Price Index":       models.Lagging,
	"Core Personal Consumption Expenditures": models.Lagging,
	"Personal Consumption Expenditures":      models.Lagging,
	"PPI All Commodities":                    models.Lagging,
	"PPI Final Demand":                       models.Lagging,
	"Producer Price Index: Final Demand":     models.Lagging,
	"Average Hourly Earnings":                models.Lagging,
	"Average Hourly Earnings of All Employees": models.Lagging,
}

var categoryMap = map[string]string{
	"10-Year Treasury Yield":              "Monetary Policy",
	"30-Year Fixed Rate Mortgage Average": "Monetary Policy",
	"30-Year Mortgage Rate":               "Monetary Policy",
	"Federal Funds Rate":                  "Monetary Policy",
	"Yield Curve (10yr-2yr)":              "Monetary Policy",
	"US Dollar Index":                     "Monetary Policy",
	"US / Euro Foreign Exchange Rate":     "Monetary Policy",

	"Core CPI":                               "Inflation",
	"Core CPI Year-over-Year":                "Inflation",
	"Core PCE Price Index":                   "Inflation",
	"Core Personal Consumption Expenditures": "Inflation",
	"CPI All Items":                          "Inflation",
	"CPI Energy":                             "Inflation",
	"CPI Year-over-Year":                     "Inflation",
	"PCE Price Index":                        "Inflation",
	"PCE Price Index YoY":                    "Inflation",
	"PPI All Commodities":                    "Inflation",
	"PPI Final Demand":                       "Inflation",
	"Producer Price Index: Final Demand":     "Inflation",
	"Gasoline Prices":                        "Inflation",

	"Unemployment Rate":                        "Labor",
	"U-6 Unemployment Rate":                    "Labor",
	"Labor Force Participation Rate":           "Labor",
	"Average Hourly Earnings":                  "Labor",
	"Average Hourly Earnings of All Employees": "Labor",
	"All Employees: Manufacturing":             "Labor",
	"Nonfarm Payrolls":                         "Labor",
	"Total Nonfarm Payrolls":                   "Labor",
	"Initial Jobless Claims":                   "Labor",
	"Continuing Claims":                        "Labor",
	"Continuing Jobless Claims":                "Labor",
	"Employment Population Ratio":              "Labor",
	"Employment to Population Ratio":           "Labor",
	"JOLTS Job Openings":                       "Labor",
	"JOLTS Hires":                              "Labor",
	"JOLTS Quits":                              "Labor",
	"Average Weekly Hours":                     "Labor",
	"Average Weekly Hours of Production Employees: Manufacturing": "Labor",

	"GDP Growth Rate":                         "Growth",
	"Real Gross Domestic Product":             "Growth",
	"Retail Sales":                            "Growth",
	"Retail Sales MoM":                        "Growth",
	"Retail Sales Ex-Auto":                    "Growth",
	"Retail Sales: Food Services":             "Growth",
	"E-commerce Retail Sales":                 "Growth",
	"Industrial Production":                   "Growth",
	"Industrial Production Index":             "Growth",
	"Industrial Production YoY":               "Growth",
	"Capacity Utilization (Mfg)":              "Growth",
	"Manufacturers New Orders: Durable Goods": "Growth",
	"Durable Goods Orders":                    "Growth",
	"Durable Goods Orders MoM":                "Growth",
	"Total Construction Spending":             "Growth",
	"Existing Home Sales":                     "Growth",
	"New Home Sales":                          "Growth",
	"Months Supply of Homes":                  "Growth",
	"Housing Starts":                          "Growth",
	"Building Permits":                        "Growth",
	"Personal Consumption Expenditures":       "Growth",
	"Real Disposable Personal Income":         "Growth",
	"Personal Savings Rate":                   "Growth",
	"Inventories to Sales Ratio":              "Growth",
	"Total Consumer Credit Outstanding":       "Growth",
	"Commercial & Industrial Loans":           "Growth",
	"Case-Shiller Home Price Index":           "Growth",

	"Consumer Confidence Index":           "Sentiment",
	"Michigan Consumer Sentiment":         "Sentiment",
	"Manufacturing PMI":                   "Sentiment",
	"Leading Economic Index":              "Sentiment",
	"Chicago Fed National Activity Index": "Sentiment",
}

// overrides maps a metric to its curated FRED series id. An empty
// string is the explicit "no direct series" sentinel: the metric is
// either derived or must fall back to search.
var overrides = map[string]string{
	"10-Year Treasury Yield":              "DGS10",
	"30-Year Fixed Rate Mortgage Average": "MORTGAGE30US",
	"30-Year Mortgage Rate":               "MORTGAGE30US",
	"Federal Funds Rate":                  "FEDFUNDS",
	"Yield Curve (10yr-2yr)":              "", // computed: DGS10 - DGS2
	"US / Euro Foreign Exchange Rate":     "EXUSEU",
	"US Dollar Index":                     "DTWEXBGS",
	"All Employees: Manufacturing":        "MANEMP",
	"Average Weekly Hours":                "AWHMAN",
	"Average Weekly Hours of Production Employees: Manufacturing": "AWHMAN",
	"Average Hourly Earnings of All Employees":                    "CES0500000003",
	"Average Hourly Earnings":                                     "CES0500000003",

	"Building Permits":    "PERMIT",
	"Housing Starts":      "HOUST",
	"Existing Home Sales": "EXHOSLUSM495S",
	"New Home Sales":      "HSN1F",

	"Capacity Utilization (Mfg)":  "TCU",
	"Industrial Production":       "INDPRO",
	"Industrial Production Index": "INDPRO",
	"Industrial Production YoY":   "INDPRO",

	"Consumer Confidence Index":   "UMCSENT",
	"Michigan Consumer Sentiment": "UMCSENT",
	"Manufacturing PMI":           "USMFGPMI",

	"Manufacturers New Orders: Durable Goods": "DGORDER",
	"Durable Goods Orders":                    "DGORDER",
	"Durable Goods Orders MoM":                "DGORDER",

	"E-commerce Retail Sales":     "ECOMSA",
	"Retail Sales":                "RSAFS",
	"Retail Sales MoM":            "RSAFS",
	"Retail Sales Ex-Auto":        "RSXFS",
	"Retail Sales: Food Services": "RSFSXMV",

	"Employment Population Ratio":    "EMRATIO",
	"Employment to Population Ratio": "EMRATIO",
	"Nonfarm Payrolls":               "PAYEMS",
	"Total Nonfarm Payrolls":         "PAYEMS",
	"Labor Force Participation Rate": "CIVPART",
	"Unemployment Rate":              "UNRATE",
	"U-6 Unemployment Rate":          "U6RATE",
	"Initial Jobless Claims":         "ICSA",
	"Continuing Claims":              "CCSA",
	"Continuing Jobless Claims":      "CCSA",

	"Commercial & Industrial Loans":       "BUSLOANS",
	"Inventories to Sales Ratio":          "ISRATIO",
	"Total Construction Spending":         "TTLCONS",
	"Total Consumer Credit Outstanding":   "TOTALSL",
	"Chicago Fed National Activity Index": "CFNAI",

	"CPI All Items":           "CPIAUCSL",
	"CPI Energy":              "CPIENGSL",
	"Core CPI":                "CPILFESL",
	"CPI Year-over-Year":      "CPIAUCSL",
	"Core CPI Year-over-Year": "CPILFESL",

	"PCE Price Index":                        "PCEPI",
	"PCE Price Index YoY":                    "PCEPI",
	"Core PCE Price Index":                   "PCEPILFE",
	"Core Personal Consumption Expenditures": "PCEPILFE",

	"PPI All Commodities":                "PPIACO",
	"PPI Final Demand":                   "WPSFD49207",
	"Producer Price Index: Final Demand": "WPSFD49207",

	"Gasoline Prices": "GASREGW",

	"Real Gross Domestic Product": "GDPC1",
	"GDP Growth Rate":             "GDPC1",

	"Personal Consumption Expenditures": "PCEC",
	"Real Disposable Personal Income":   "DSPIC96",
	"Personal Savings Rate":             "PSAVERT",
	"Case-Shiller Home Price Index":     "CSUSHPISA",
	"Leading Economic Index":            "", // Conference Board LEI needs a subscription; search fallback
	"Months Supply of Homes":            "MSACSR",
}

// derivedSpecs lists the metrics computed from base series instead of
// fetched directly.
var derivedSpecs = map[string]models.Derived{
	"Yield Curve (10yr-2yr)":    {Kind: models.Spread, BaseSeries: "DGS10", SecondSeries: "DGS2", Unit: "percent", Frequency: models.Daily},
	"GDP Growth Rate":           {Kind: models.AnnualizedQoQ, BaseSeries: "GDPC1", Unit: "percent", Frequency: models.Quarterly},
	"CPI Year-over-Year":        {Kind: models.YoYPercent, BaseSeries: "CPIAUCSL", Unit: "percent", Frequency: models.Monthly},
	"Core CPI Year-over-Year":   {Kind: models.YoYPercent, BaseSeries: "CPILFESL", Unit: "percent", Frequency: models.Monthly},
	"Industrial Production YoY": {Kind: models.YoYPercent, BaseSeries: "INDPRO", Unit: "percent", Frequency: models.Monthly},
	"PCE Price Index YoY":       {Kind: models.YoYPercent, BaseSeries: "PCEPI", Unit: "percent", Frequency: models.Monthly},
	"Durable Goods Orders MoM":  {Kind: models.MoMPercent, BaseSeries: "DGORDER", Unit: "percent", Frequency: models.Monthly},
	"Retail Sales MoM":          {Kind: models.MoMPercent, BaseSeries: "RSAFS", Unit: "percent", Frequency: models.Monthly},
}

var definitions map[string]models.MetricDefinition

func init() {
	definitions = make(map[string]models.MetricDefinition, len(metricNames))
	for _, name := range metricNames {
		definitions[name] = models.MetricDefinition{
			Name:        name,
			Type:        typeMap[name],
			Category:    categoryMap[name],
			Computation: computationFor(name),
		}
	}
}

func computationFor(name string) models.Computation {
	if spec, ok := derivedSpecs[name]; ok {
		return spec
	}
	if id, ok := overrides[name]; ok && id != "" {
		return models.DirectSeries{SeriesID: id}
	}
	// No usable override: resolve by search, metric name as query.
	return models.SearchQuery{Query: name}
}

// Lookup returns the definition for a metric name.
func Lookup(name string) (models.MetricDefinition, bool) {
	def, ok := definitions[name]
	return def, ok
}

// Definitions returns every metric definition, sorted by name so a
// run always walks the catalog in the same order.
func Definitions() []models.MetricDefinition {
	defs := make([]models.MetricDefinition, 0, len(definitions))
	for _, def := range definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Size reports how many metrics the catalog defines.
func Size() int {
	return len(definitions)
}
