package domain

import (
	"context"
)

type Service interface {
	GetCategory(ctx context.Context, id string) (*Category, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListForSale(ctx context.Context, req ListForSaleRequest) ([]Product, error)
	GetProductProperties(ctx context.Context, id string) (*ProductPropertiesResponse, error)
	UpdateProperties(ctx context.Context, req UpdatePropertiesRequest) error
	UpdatePropertyGroups(ctx context.Context, req UpdatePropertyGroupsRequest) error
}

type ListForSaleRequest struct {
	Limit      int
	CategoryID string
}

type UpdatePropertiesRequest struct {
	ProductID string              `json:"-"`
	Type      ValueType           `json:"type"`
	Values    map[string][]string `json:"values"`
}

type UpdatePropertyGroupsRequest struct {
	ProductID string   `json:"-"`
	GroupIDs  []string `json:"group_ids"`
}

type OptionSelection struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type PropertyEntry struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Type               PropertyType      `json:"type"`
	Options            []OptionSelection `json:"options"`
	Values             []string          `json:"values"`
	DisplayTextField   bool              `json:"display_text_field"`
	DisplaySelectField bool              `json:"display_select_field"`
}

type GroupEntry struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Properties []PropertyEntry `json:"properties"`
}

type GroupSelection struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type ProductPropertiesResponse struct {
	ProductID     string           `json:"product_id"`
	Configurables []GroupEntry     `json:"configurables"`
	Filterables   []GroupEntry     `json:"filterables"`
	Displayables  []GroupEntry     `json:"displayables"`
	Groups        []GroupSelection `json:"groups"`
}
