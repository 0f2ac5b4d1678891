package catalog

import "github.com/fivetwenty-io/restcrud/pkg/crud"

// Resource names.
const (
	ResourceObject   = "object"
	ResourceCategory = "category"
	ResourceUser     = "user"
)

// Endpoint names shared by every entity.
const (
	EndpointCount      = "count"
	EndpointGetAll     = "getAll"
	EndpointGet        = "get"
	EndpointCreate     = "create"
	EndpointUpdate     = "update"
	EndpointDelete     = "delete"
	EndpointActivate   = "activate"
	EndpointDeactivate = "deactivate"
	EndpointSearch     = "search"
)

func listing(route string) crud.EndpointDescriptor {
	return crud.EndpointDescriptor{
		Route:       route,
		Cachable:    true,
		Paginatable: true,
		Filterable:  true,
		Sortable:    true,
	}
}

// entityEndpoints is the endpoint set every entity resource has.
func entityEndpoints(name string) map[string]crud.EndpointDescriptor {
	return map[string]crud.EndpointDescriptor{
		EndpointCount:      {Route: name + "/count", Cachable: true, Filterable: true},
		EndpointGetAll:     listing(name),
		EndpointGet:        {Route: name + "/:guid", Cachable: true},
		EndpointCreate:     {Route: name, Method: crud.MethodPost},
		EndpointUpdate:     {Route: name + "/:guid", Method: crud.MethodPut},
		EndpointDelete:     {Route: name + "/:guid", Method: crud.MethodDelete},
		EndpointActivate:   {Route: name + "/activate/:guid"},
		EndpointDeactivate: {Route: name + "/deactivate/:guid"},
		EndpointSearch: {
			Route:       name + "/search",
			Method:      crud.MethodPost,
			Cachable:    true,
			Paginatable: true,
			Sortable:    true,
		},
	}
}

// ObjectEndpoints returns the endpoints of the object resource.
func ObjectEndpoints() map[string]crud.EndpointDescriptor {
	endpoints := entityEndpoints(ResourceObject)
	endpoints["getObjectsInCategory"] = listing("object/category/:guid")

	return endpoints
}

// CategoryEndpoints returns the endpoints of the category resource.
func CategoryEndpoints() map[string]crud.EndpointDescriptor {
	endpoints := entityEndpoints(ResourceCategory)
	endpoints["getParents"] = listing("category/parents/:guid")
	endpoints["getChildren"] = listing("category/children/:guid")
	endpoints["getCategoriesInObject"] = listing("category/object/:guid")
	endpoints["autocomplete"] = crud.EndpointDescriptor{
		Route:       "category/autocomplete/:query",
		Method:      crud.MethodGet,
		Cachable:    true,
		Paginatable: true,
	}

	return endpoints
}

// UserEndpoints returns the endpoints of the user resource.
func UserEndpoints() map[string]crud.EndpointDescriptor {
	endpoints := entityEndpoints(ResourceUser)
	endpoints["checkEmailAvailability"] = crud.EndpointDescriptor{Route: "user/available/:email", Cachable: true}
	endpoints["changePassword"] = crud.EndpointDescriptor{Route: "user/password/change/:guid", Method: crud.MethodPost}
	endpoints["resetPassword"] = crud.EndpointDescriptor{Route: "user/password/reset/:guid"}
	endpoints["logOut"] = crud.EndpointDescriptor{Route: "user/logout/:guid"}
	endpoints["uploadProfilePicture"] = crud.EndpointDescriptor{Route: "user/image/:guid", Method: crud.MethodPost}
	endpoints["deleteProfilePicture"] = crud.EndpointDescriptor{Route: "user/image/:guid", Method: crud.MethodDelete}

	return endpoints
}

// Schema returns all entity resources in schema form.
func Schema() crud.Schema {
	return crud.Schema{
		ResourceObject:   ObjectEndpoints(),
		ResourceCategory: CategoryEndpoints(),
		ResourceUser:     UserEndpoints(),
	}
}
