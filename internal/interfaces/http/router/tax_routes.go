package router

import (
	"github.com/erp/taxsvc/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// RevisionResource is a handler serving the endpoints of a revisioned
// record type
type RevisionResource interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	History(c *gin.Context)
	Latest(c *gin.Context)
	ForceChange(c *gin.Context)
}

// PermissionGuard returns the middleware checking one permission codename
type PermissionGuard func(codename string) gin.HandlerFunc

// Codenames of a model, in the auth service's naming
func viewPerm(model string) string   { return "view_" + model }
func addPerm(model string) string    { return "add_" + model }
func changePerm(model string) string { return "change_" + model }
func deletePerm(model string) string { return "delete_" + model }

// RevisionRoutes builds the CRUD and chain routes of a revisioned model.
// model is the permission suffix, e.g. "taxcategory".
func RevisionRoutes(name, prefix, model string, h RevisionResource, guard PermissionGuard) *DomainGroup {
	g := NewDomainGroup(name, prefix)
	g.GET("", guard(viewPerm(model)), h.List)
	g.POST("", guard(addPerm(model)), h.Create)
	g.GET("/:id", guard(viewPerm(model)), h.Get)
	g.PUT("/:id", guard(changePerm(model)), h.Update)
	g.PATCH("/:id", guard(changePerm(model)), h.Update)
	g.DELETE("/:id", guard(deletePerm(model)), h.Delete)
	g.GET("/:id/history", guard(viewPerm(model)), h.History)
	g.GET("/:id/latest", guard(viewPerm(model)), h.Latest)
	g.POST("/:id/force-change", guard(changePerm(model)), h.ForceChange)
	return g
}

// TaxHandlers bundles the handlers of the tax API
type TaxHandlers struct {
	TaxCategory *handler.TaxCategoryHandler
	Tax         *handler.TaxHandler
	EMenu       *handler.EMenuHandler
	Onboarding  *handler.OnboardingHandler
}

// TaxGuards bundles the middleware protecting the tax API
type TaxGuards struct {
	// Auth accepts staff tokens only
	Auth gin.HandlerFunc
	// AnonymousAuth also accepts anonymous e-menu tokens
	AnonymousAuth gin.HandlerFunc
	// Permission checks a codename against the caller's permission tree
	Permission PermissionGuard
	// AfterAuth runs once the caller is known, e.g. span and profile labels
	AfterAuth []gin.HandlerFunc
}

// RegisterTaxAPI adds the tax category, tax, e-menu and onboarding groups
// to r
func RegisterTaxAPI(r *Router, h TaxHandlers, guards TaxGuards) {
	authed := func(g *DomainGroup, auth gin.HandlerFunc) *DomainGroup {
		g.Use(auth)
		g.Use(guards.AfterAuth...)
		return g
	}

	categories := RevisionRoutes("tax-category", "/tax-category", "taxcategory", h.TaxCategory, guards.Permission)
	r.Register(authed(categories, guards.Auth))

	taxes := RevisionRoutes("tax", "/tax", "tax", h.Tax, guards.Permission)
	taxes.POST("/calculate", guards.Permission(viewPerm("tax")), h.Tax.Calculate)
	r.Register(authed(taxes, guards.Auth))

	emenu := NewDomainGroup("e-menu", "/e-menu")
	emenu.GET("/tax-category/:id", h.EMenu.GetTaxCategory)
	r.Register(authed(emenu, guards.AnonymousAuth))

	onboarding := NewDomainGroup("onboarding", "/internal/onboarding")
	onboarding.POST("/tax", guards.Permission(addPerm("tax")), h.Onboarding.Seed)
	r.Register(authed(onboarding, guards.Auth))
}
