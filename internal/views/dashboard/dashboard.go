// Package dashboard is the seller's workspace: their own products, the
// add/edit product form and the profile form.
package dashboard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/validate"
)

type Tab string

const (
	TabProducts Tab = "products"
	TabAdd      Tab = "add"
	TabProfile  Tab = "profile"
)

var (
	ErrSellersOnly    = errors.New("only sellers manage products")
	ErrUnknownTab     = errors.New("unknown tab")
	ErrUnknownProduct = errors.New("product is not in your list")
	ErrBusy           = errors.New("a request is already in progress")
	ErrDeclined       = errors.New("delete not confirmed")
)

type Gateway interface {
	ListProducts(ctx context.Context, f product.ListProductsFilter) ([]product.Product, error)
	AddProduct(ctx context.Context, req product.CreateProductRequest) (*product.Product, error)
	UpdateProduct(ctx context.Context, id string, req product.UpdateProductRequest) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (*user.User, error)
}

// Draft is the product form. Price stays a string until submit.
type Draft struct {
	Title       string
	Price       string
	Category    string
	Condition   product.Condition
	Description string
	Location    string
	Images      []string
}

func emptyDraft() Draft {
	return Draft{Category: product.Categories[0], Condition: product.ConditionNew}
}

// ProfileForm mirrors the nested store and social objects.
type ProfileForm struct {
	Name             string
	StoreName        string
	StoreDescription string
	StoreLocation    string
	WhatsApp         string
	Instagram        string
}

func profileFormFor(u user.User) ProfileForm {
	f := ProfileForm{Name: u.Name}
	if u.Store != nil {
		f.StoreName = u.Store.Name
		f.StoreDescription = u.Store.Description
		f.StoreLocation = u.Store.Location
	}
	if u.Social != nil {
		f.WhatsApp = u.Social.WhatsApp
		f.Instagram = u.Social.Instagram
	}
	return f
}

// Row is one listed product. PendingRemoval is set while its delete is in flight.
type Row struct {
	Product        product.Product
	PendingRemoval bool
}

type Snapshot struct {
	Tab         Tab
	Me          user.User
	Rows        []Row
	Draft       Draft
	EditingID   string
	Profile     ProfileForm
	Loading     bool
	Saving      bool
	Error       string
	FieldErrors map[string]string
	Notice      string
}

type View struct {
	ctx context.Context
	gw  Gateway

	mu        sync.Mutex
	tab       Tab
	me        user.User
	rows      []Row
	draft     Draft
	editingID string
	profile   ProfileForm
	loading   bool
	saving    bool
	errMsg    string
	fields    map[string]string
	notice    string
}

// New opens the dashboard for me. Non-sellers land on the profile tab.
func New(ctx context.Context, gw Gateway, me user.User) *View {
	tab := TabProducts
	if !me.IsSeller() {
		tab = TabProfile
	}
	return &View{
		ctx:     ctx,
		gw:      gw,
		tab:     tab,
		me:      me,
		draft:   emptyDraft(),
		profile: profileFormFor(me),
	}
}

func (v *View) SetTab(tab Tab) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch tab {
	case TabProducts, TabAdd:
		if !v.me.IsSeller() {
			return ErrSellersOnly
		}
	case TabProfile:
	default:
		return ErrUnknownTab
	}
	v.tab = tab
	v.clearMessagesLocked()
	return nil
}

// Reload fetches the seller's own products.
func (v *View) Reload() error {
	v.mu.Lock()
	if !v.me.IsSeller() {
		v.mu.Unlock()
		return ErrSellersOnly
	}
	v.loading = true
	sellerID := v.me.ID
	v.mu.Unlock()

	list, err := v.gw.ListProducts(v.ctx, product.ListProductsFilter{SellerID: sellerID})

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ctx.Err() != nil {
		return v.ctx.Err()
	}
	v.loading = false

	if err != nil {
		v.errMsg = err.Error()
		return err
	}

	rows := make([]Row, 0, len(list))
	for _, p := range list {
		rows = append(rows, Row{Product: p})
	}
	v.rows = rows
	return nil
}

// EditDraft applies fn to the product form.
func (v *View) EditDraft(fn func(d *Draft)) {
	v.mu.Lock()
	fn(&v.draft)
	v.mu.Unlock()
}

// AddImage appends an already-encoded data URL (or remote URL) to the draft.
func (v *View) AddImage(ref string) {
	v.mu.Lock()
	v.draft.Images = append(v.draft.Images, ref)
	v.mu.Unlock()
}

// AddImageFile reads a local file and appends it as a data URL.
func (v *View) AddImageFile(path string) error {
	ref, err := EncodeImageFile(path)
	if err != nil {
		return err
	}
	v.AddImage(ref)
	return nil
}

func (v *View) RemoveImage(i int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if i < 0 || i >= len(v.draft.Images) {
		return
	}
	v.draft.Images = append(v.draft.Images[:i:i], v.draft.Images[i+1:]...)
}

// StartEdit loads one of the listed products into the form.
func (v *View) StartEdit(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.me.IsSeller() {
		return ErrSellersOnly
	}

	for _, r := range v.rows {
		if r.Product.ID != id {
			continue
		}
		p := r.Product
		images := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			images = append(images, img.URL)
		}
		v.draft = Draft{
			Title:       p.Title,
			Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
			Category:    p.Category,
			Condition:   p.Condition,
			Description: p.Description,
			Location:    p.Location,
			Images:      images,
		}
		v.editingID = id
		v.tab = TabAdd
		v.clearMessagesLocked()
		return nil
	}
	return ErrUnknownProduct
}

func (v *View) CancelEdit() {
	v.mu.Lock()
	v.draft = emptyDraft()
	v.editingID = ""
	v.clearMessagesLocked()
	v.mu.Unlock()
}

// parsePrice accepts a plain non-negative number; thousands separators are dropped.
func parsePrice(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, validate.New("price", "required", "is required")
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, validate.New("price", "number", "must be a number")
	}
	if price < 0 {
		return 0, validate.New("price", "gte", "must be 0 or more")
	}
	return price, nil
}

// SubmitProduct updates the product being edited, or adds a new one. On
// success the form resets and the list reloads.
func (v *View) SubmitProduct() error {
	v.mu.Lock()
	if !v.me.IsSeller() {
		v.mu.Unlock()
		return ErrSellersOnly
	}
	if v.saving {
		v.mu.Unlock()
		return ErrBusy
	}
	v.clearMessagesLocked()

	d := v.draft
	d.Images = append([]string(nil), v.draft.Images...)
	editingID := v.editingID
	sellerID := v.me.ID

	title := strings.TrimSpace(d.Title)
	var fieldErrs validate.Errors
	if title == "" {
		fieldErrs = append(fieldErrs, validate.New("title", "required", "is required")...)
	}
	price, err := parsePrice(d.Price)
	if err != nil {
		fe, _ := validate.AsErrors(err)
		fieldErrs = append(fieldErrs, fe...)
	}
	if len(fieldErrs) > 0 {
		v.fields = fieldErrs.ByField()
		v.mu.Unlock()
		return fieldErrs
	}

	v.saving = true
	v.mu.Unlock()

	if editingID != "" {
		_, err = v.gw.UpdateProduct(v.ctx, editingID, product.UpdateProductRequest{
			Title:       &title,
			Price:       &price,
			Category:    &d.Category,
			Condition:   &d.Condition,
			Description: &d.Description,
			Location:    &d.Location,
			Images:      d.Images,
		})
	} else {
		_, err = v.gw.AddProduct(v.ctx, product.CreateProductRequest{
			SellerID:    sellerID,
			Title:       title,
			Price:       price,
			Category:    d.Category,
			Condition:   d.Condition,
			Description: d.Description,
			Location:    d.Location,
			Images:      d.Images,
		})
	}

	v.mu.Lock()
	if v.ctx.Err() != nil {
		v.mu.Unlock()
		return v.ctx.Err()
	}
	v.saving = false

	if err != nil {
		v.setErrorLocked(err)
		v.mu.Unlock()
		return err
	}

	v.draft = emptyDraft()
	v.editingID = ""
	v.tab = TabProducts
	if editingID != "" {
		v.notice = "Product updated"
	} else {
		v.notice = "Product added"
	}
	v.mu.Unlock()

	return v.Reload()
}

// Delete removes a product after confirm approves it. Declining sends
// nothing. While the request runs the row is marked PendingRemoval; it is
// only dropped once the backend agrees, and restored with an error otherwise.
func (v *View) Delete(id string, confirm func(p product.Product) bool) error {
	v.mu.Lock()
	idx := v.indexLocked(id)
	if idx < 0 {
		v.mu.Unlock()
		return ErrUnknownProduct
	}
	if v.rows[idx].PendingRemoval {
		v.mu.Unlock()
		return ErrBusy
	}
	p := v.rows[idx].Product
	v.mu.Unlock()

	if confirm == nil || !confirm(p) {
		return ErrDeclined
	}

	v.mu.Lock()
	idx = v.indexLocked(id)
	if idx < 0 {
		v.mu.Unlock()
		return ErrUnknownProduct
	}
	v.rows[idx].PendingRemoval = true
	v.clearMessagesLocked()
	v.mu.Unlock()

	err := v.gw.DeleteProduct(v.ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ctx.Err() != nil {
		return v.ctx.Err()
	}

	idx = v.indexLocked(id)
	if err != nil {
		if idx >= 0 {
			v.rows[idx].PendingRemoval = false
		}
		v.errMsg = err.Error()
		return err
	}

	if idx >= 0 {
		v.rows = append(v.rows[:idx:idx], v.rows[idx+1:]...)
	}
	if v.editingID == id {
		v.draft = emptyDraft()
		v.editingID = ""
	}
	v.notice = "Product deleted"
	return nil
}

// EditProfile applies fn to the profile form.
func (v *View) EditProfile(fn func(f *ProfileForm)) {
	v.mu.Lock()
	fn(&v.profile)
	v.mu.Unlock()
}

// SubmitProfile saves the profile form. The session snapshot is refreshed by
// the gateway; observers of the session pick the change up from there.
func (v *View) SubmitProfile() error {
	v.mu.Lock()
	if v.saving {
		v.mu.Unlock()
		return ErrBusy
	}
	v.clearMessagesLocked()

	f := v.profile
	id := v.me.ID

	name := strings.TrimSpace(f.Name)
	req := user.UpdateProfileRequest{
		Name: &name,
		Store: &user.Store{
			Name:        strings.TrimSpace(f.StoreName),
			Description: strings.TrimSpace(f.StoreDescription),
			Location:    strings.TrimSpace(f.StoreLocation),
		},
		Social: &user.Social{
			WhatsApp:  strings.TrimSpace(f.WhatsApp),
			Instagram: strings.TrimSpace(f.Instagram),
		},
	}
	// keep handles the form does not edit
	if v.me.Social != nil {
		req.Social.Facebook = v.me.Social.Facebook
		req.Social.Twitter = v.me.Social.Twitter
	}

	v.saving = true
	v.mu.Unlock()

	updated, err := v.gw.UpdateProfile(v.ctx, id, req)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ctx.Err() != nil {
		return v.ctx.Err()
	}
	v.saving = false

	if err != nil {
		v.setErrorLocked(err)
		return err
	}

	v.me = *updated
	v.profile = profileFormFor(*updated)
	v.notice = "Profile updated"
	return nil
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows := make([]Row, len(v.rows))
	copy(rows, v.rows)

	d := v.draft
	d.Images = append([]string(nil), v.draft.Images...)

	var fields map[string]string
	if len(v.fields) > 0 {
		fields = make(map[string]string, len(v.fields))
		for k, msg := range v.fields {
			fields[k] = msg
		}
	}

	return Snapshot{
		Tab:         v.tab,
		Me:          v.me,
		Rows:        rows,
		Draft:       d,
		EditingID:   v.editingID,
		Profile:     v.profile,
		Loading:     v.loading,
		Saving:      v.saving,
		Error:       v.errMsg,
		FieldErrors: fields,
		Notice:      v.notice,
	}
}

func (v *View) indexLocked(id string) int {
	for i, r := range v.rows {
		if r.Product.ID == id {
			return i
		}
	}
	return -1
}

func (v *View) clearMessagesLocked() {
	v.errMsg = ""
	v.fields = nil
	v.notice = ""
}

func (v *View) setErrorLocked(err error) {
	if fields, ok := validate.AsErrors(err); ok {
		v.fields = fields.ByField()
		return
	}
	v.errMsg = err.Error()
}
