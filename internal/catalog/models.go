// Package catalog serves the product list the medical-product step offers.
// Products come from an upstream commerce service and change rarely, so reads
// go through a short-lived Redis cache.
package catalog

import "strconv"

// Plan is one membership plan of a product. Duration is a string on the wire
// ("6", "12", "0" for one-off) and is copied verbatim into the contract.
type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

// Product mirrors the upstream catalog record.
type Product struct {
	ID                int    `json:"id"`
	Description       string `json:"description"`
	PriceList         string `json:"price_list"`
	PriceMembership6  string `json:"price_membership_6"`
	PriceMembership12 string `json:"price_membership_12"`
	Varcode           string `json:"varcode"`
	Plans             []Plan `json:"plans"`
	PDV               string `json:"pdv"`
}

// PlanDuration resolves the duration of a product/plan pair, "" when either
// id is unknown. The contract payload carries this as product_duration.
func PlanDuration(products []Product, productID, planID string) string {
	for _, p := range products {
		if strconv.Itoa(p.ID) != productID {
			continue
		}
		for _, plan := range p.Plans {
			if plan.ID == planID {
				return plan.Duration
			}
		}
	}
	return ""
}
