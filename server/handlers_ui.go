package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/spares-console/format"
	"github.com/jrsteele09/spares-console/guard"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/resources"
	"github.com/jrsteele09/spares-console/server/loginsession"
	"github.com/rs/zerolog/log"
)

// Route names of the pages the console renders data for.
const (
	pageLogin          = "login"
	pageDashboard      = "Dashboard"
	pageRolesPerms     = "Roles & Permissions"
	pageVendorProfile  = "Vendor Profile"
	pagePickupPoints   = "Pickup Points"
	pageVendorParts    = "Vendor Parts"
	pageParts          = "Parts"
	pagePartCategories = "Part Categories"
	pageUnauthorized   = "unauthorized"
	pageForbidden      = "forbidden"
	pageNotFound       = "not-found"
	pageServerError    = "server-error"
	pageServiceDown    = "service-unavailable"
	pageCatchAll       = guard.NameNotFound
)

var navPages = []string{
	pageDashboard,
	pageParts,
	pagePartCategories,
	pageVendorParts,
	pagePickupPoints,
	pageVendorProfile,
	pageRolesPerms,
}

// errorPages maps an error route to its status and message.
var errorPages = map[string]struct {
	status  int
	title   string
	message string
}{
	pageUnauthorized: {http.StatusOK, "Unauthorized", "Please login to access this page."},
	pageForbidden:    {http.StatusOK, "Forbidden", "You do not have access to this page."},
	pageNotFound:     {http.StatusOK, "Page Not Found", "The page you are looking for does not exist."},
	pageServerError:  {http.StatusOK, "Server Error", "Something went wrong on our end. Please try again later."},
	pageServiceDown:  {http.StatusOK, "Service Unavailable", "The service is temporarily unavailable. Please try again later."},
	pageCatchAll:     {http.StatusNotFound, "Page Not Found", "The page you are looking for does not exist."},
}

type navItem struct {
	Name   string
	Path   string
	Active bool
}

type orgOption struct {
	ID      string
	Name    string
	Current bool
}

type pageRow struct {
	Image string
	Cells []string
}

type pageTable struct {
	Columns []string
	Images  bool
	Rows    []pageRow
}

// PageData is what page.html renders.
type PageData struct {
	AppName       string
	Title         string
	Path          string
	Status        int
	Authenticated bool
	UserName      string
	Organisation  string
	Organisations []orgOption
	Roles         []string
	TokenExpiry   string
	Nav           []navItem
	Flashes       []notify.Notification
	Message       string
	Login         bool
	Email         string
	Dashboard     bool
	Table         *pageTable
}

// pageLoader fills the data part of a page. Failures have already been notified by the
// resource store, so the page still renders.
type pageLoader func(ctx context.Context, cs *loginsession.Session, data *PageData)

func (s *Server) pageLoaders() map[string]pageLoader {
	return map[string]pageLoader{
		pageParts:          s.loadParts,
		pageVendorParts:    s.loadParts,
		pagePartCategories: loadCategories,
		pagePickupPoints:   loadPickupPoints,
		pageVendorProfile:  loadVendors,
		pageRolesPerms:     loadRoles,
	}
}

// PageHandler renders every guarded page. It must run behind GuardMiddleware.
func (s *Server) PageHandler() http.HandlerFunc {
	loaders := s.pageLoaders()

	return func(w http.ResponseWriter, r *http.Request) {
		cs, ok := consoleFrom(r.Context())
		loc, okLoc := locationFrom(r.Context())
		if !ok || !okLoc {
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}

		data := s.basePageData(cs, loc)
		switch {
		case loc.Name == pageLogin:
			data.Title = "Login"
			data.Login = true
			data.Email = r.URL.Query().Get("email")
		case loc.Name == pageDashboard:
			data.Dashboard = true
		}
		if ep, found := errorPages[loc.Name]; found {
			data.Status = ep.status
			data.Title = ep.title
			data.Message = ep.message
		}
		if load, found := loaders[loc.Name]; found {
			load(r.Context(), cs, &data)
			// a remote call may have sent the session elsewhere, e.g. after a 401
			if path := cs.TakeRedirect(); path != "" && path != loc.Path {
				redirectSuccess(w, r, path)
				return
			}
		}

		s.render(w, cs, data)
	}
}

func (s *Server) basePageData(cs *loginsession.Session, loc guard.Location) PageData {
	data := PageData{
		AppName:       s.config.GetAppName(),
		Title:         loc.Name,
		Path:          loc.Path,
		Status:        http.StatusOK,
		Authenticated: cs.Store.IsAuthenticated(),
		UserName:      cs.Store.UserName(),
	}

	for _, name := range navPages {
		if path, ok := s.table.Lookup(name); ok {
			data.Nav = append(data.Nav, navItem{Name: name, Path: path, Active: name == loc.Name})
		}
	}
	for _, role := range cs.Store.UserRoles() {
		data.Roles = append(data.Roles, role.Desc())
	}
	if u := cs.Store.User(); u != nil {
		current := ""
		if u.CurrentOrganisation != nil {
			current = u.CurrentOrganisation.OrganisationID.String()
			data.Organisation = u.CurrentOrganisation.OrganisationName
		}
		for _, org := range u.Organisations {
			data.Organisations = append(data.Organisations, orgOption{
				ID:      org.OrganisationID.String(),
				Name:    org.OrganisationName,
				Current: org.OrganisationID.String() == current,
			})
		}
	}
	if exp, ok, err := cs.Store.TokenExpiry(); err == nil && ok {
		data.TokenExpiry = exp.Format(time.RFC3339)
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, cs *loginsession.Session, data PageData) {
	data.Flashes = cs.Flashes.Drain()

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(data.Status)
	if err := s.page.Execute(w, data); err != nil {
		log.Err(err).Str("path", data.Path).Msg("[Server render] failed to render page")
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (s *Server) loadParts(ctx context.Context, cs *loginsession.Session, data *PageData) {
	store := resources.NewParts(cs.API, cs.Notifier)
	store.InitializeData(ctx)

	data.Table = &pageTable{Columns: []string{"Name", "Part Number", "Price", "Available", "Added"}, Images: true}
	for _, p := range store.Parts() {
		data.Table.Rows = append(data.Table.Rows, pageRow{
			Image: format.PartImageURL(s.config.GetAssetBaseURL(), &p),
			Cells: []string{p.Name, p.PartNumber, string(p.Price), yesNo(bool(p.Availability)), format.Date(p.CreatedAt)},
		})
	}
}

func loadCategories(ctx context.Context, cs *loginsession.Session, data *PageData) {
	store := resources.NewCategories(cs.API, cs.Notifier)
	store.InitializeData(ctx)

	data.Table = &pageTable{Columns: []string{"Name", "Description", "Added"}}
	for _, c := range store.Categories() {
		data.Table.Rows = append(data.Table.Rows, pageRow{Cells: []string{c.Name, c.Description, format.Date(c.CreatedAt)}})
	}
}

// loadPickupPoints lists every pickup point for administrators and the vendor's own otherwise.
func loadPickupPoints(ctx context.Context, cs *loginsession.Session, data *PageData) {
	store := resources.NewPickupPoints(cs.API, cs.Notifier)
	if cs.Store.IsAdmin() {
		store.InitializeData(ctx)
	} else {
		store.FetchVendorPickupPoints(ctx)
	}

	data.Table = &pageTable{Columns: []string{"Name", "Address", "City", "Phone"}}
	for _, p := range store.PickupPoints() {
		data.Table.Rows = append(data.Table.Rows, pageRow{Cells: []string{p.Name, p.Address, p.City, p.Phone}})
	}
}

func loadVendors(ctx context.Context, cs *loginsession.Session, data *PageData) {
	store := resources.NewVendors(cs.API, cs.Notifier)
	store.InitializeData(ctx)

	data.Table = &pageTable{Columns: []string{"Business", "Email", "Phone", "Verified", "Joined"}}
	for _, v := range store.Vendors() {
		data.Table.Rows = append(data.Table.Rows, pageRow{
			Cells: []string{v.BusinessName, v.Email, v.Phone, yesNo(bool(v.IsVerified)), format.Date(v.CreatedAt)},
		})
	}
}

func loadRoles(ctx context.Context, cs *loginsession.Session, data *PageData) {
	perms := resources.NewPermissions(cs.API, cs.Notifier)
	store := resources.NewRoles(cs.API, cs.Notifier, perms)
	store.InitializeData(ctx)

	data.Table = &pageTable{Columns: []string{"Role", "Permissions"}}
	for _, role := range store.Roles() {
		names := make([]string, 0, len(role.Permissions))
		for _, p := range role.Permissions {
			names = append(names, p.Desc())
		}
		data.Table.Rows = append(data.Table.Rows, pageRow{Cells: []string{role.Desc(), strings.Join(names, ", ")}})
	}
	data.Message = fmt.Sprintf("%d permissions available", len(perms.Permissions()))
}
