package apiserver

import "github.com/tedsuo/rata"

const (
	ListPropertySets       = "ListPropertySets"
	GetPropertySet         = "GetPropertySet"
	ReplacePropertySet     = "ReplacePropertySet"
	MergePropertySet       = "MergePropertySet"
	DeletePropertySet      = "DeletePropertySet"
	MissingPropertySetName = "MissingPropertySetName"
	HealthCheck            = "HealthCheck"
)

var Routes = rata.Routes{
	{Path: "/properties", Method: "GET", Name: ListPropertySets},
	{Path: "/properties/:name", Method: "GET", Name: GetPropertySet},
	{Path: "/properties/:name", Method: "PUT", Name: ReplacePropertySet},
	{Path: "/properties/:name", Method: "POST", Name: MergePropertySet},
	{Path: "/properties/:name", Method: "DELETE", Name: DeletePropertySet},

	{Path: "/properties", Method: "PUT", Name: MissingPropertySetName},
	{Path: "/properties", Method: "POST", Name: MissingPropertySetName},
	{Path: "/properties", Method: "DELETE", Name: MissingPropertySetName},

	{Path: "/hc", Method: "GET", Name: HealthCheck},
}
