package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/Kawdoor/aizer/internal/membership"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GroupDetail is a group together with the caller's role in it.
type GroupDetail struct {
	models.Group
	Role models.GroupMembershipRole `json:"role"`
}

// Login exchanges credentials for a session and adopts its tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	return c.openSession(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) Register(ctx context.Context, email, password, displayName string) (*identity.Session, error) {
	return c.openSession(ctx, "/auth/register", map[string]string{
		"email":       email,
		"password":    password,
		"displayName": displayName,
	})
}

func (c *Client) openSession(ctx context.Context, path string, body map[string]string) (*identity.Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var resp Response[identity.Session]
	if err := c.send(ctx, http.MethodPost, path, payload, false, &resp); err != nil {
		return nil, err
	}
	c.SetTokens(resp.Data.AccessToken, resp.Data.RefreshToken)
	return &resp.Data, nil
}

// Logout revokes the refresh token server-side and forgets both tokens.
func (c *Client) Logout(ctx context.Context) error {
	_, refreshToken := c.Tokens()
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return err
	}
	err = c.send(ctx, http.MethodPost, "/auth/logout", payload, false, nil)
	c.SetTokens("", "")
	return err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var resp Response[models.User]
	if err := c.Get(ctx, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateMe(ctx context.Context, displayName, accentColor *string) (*models.User, error) {
	var resp Response[models.User]
	body := map[string]*string{"displayName": displayName, "accentColor": accentColor}
	if err := c.Put(ctx, "/auth/me", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Groups(ctx context.Context) ([]models.Group, error) {
	var resp Response[[]models.Group]
	if err := c.Get(ctx, "/groups", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Group(ctx context.Context, groupID uuid.UUID) (*GroupDetail, error) {
	var resp Response[GroupDetail]
	if err := c.Get(ctx, "/groups/"+groupID.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) CreateGroup(ctx context.Context, name string, description *string) (*models.Group, error) {
	var resp Response[models.Group]
	body := map[string]interface{}{"name": name, "description": description}
	if err := c.Post(ctx, "/groups", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateGroup(ctx context.Context, groupID uuid.UUID, name, description *string) (*models.Group, error) {
	var resp Response[models.Group]
	body := map[string]*string{"name": name, "description": description}
	if err := c.Put(ctx, "/groups/"+groupID.String(), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	return c.Delete(ctx, "/groups/"+groupID.String(), nil)
}

func (c *Client) Members(ctx context.Context, groupID uuid.UUID) ([]membership.Member, error) {
	var resp Response[[]membership.Member]
	if err := c.Get(ctx, "/groups/"+groupID.String()+"/members", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Invite(ctx context.Context, groupID uuid.UUID, email string, role models.GroupMembershipRole) (*models.GroupMembership, error) {
	var resp Response[models.GroupMembership]
	body := map[string]string{"email": email, "role": string(role)}
	if err := c.Post(ctx, "/groups/"+groupID.String()+"/members", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateMemberRole(ctx context.Context, groupID, userID uuid.UUID, role models.GroupMembershipRole) (*models.GroupMembership, error) {
	var resp Response[models.GroupMembership]
	body := map[string]string{"role": string(role)}
	if err := c.Put(ctx, "/groups/"+groupID.String()+"/members/"+userID.String(), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return c.Delete(ctx, "/groups/"+groupID.String()+"/members/"+userID.String(), nil)
}

func (c *Client) Activity(ctx context.Context, groupID uuid.UUID, page, limit int) ([]models.AuditLog, *Pagination, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp Response[[]models.AuditLog]
	if err := c.Get(ctx, "/groups/"+groupID.String()+"/activity", params, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Data, resp.Pagination, nil
}

func (c *Client) Invitations(ctx context.Context) ([]membership.Invitation, error) {
	var resp Response[[]membership.Invitation]
	if err := c.Get(ctx, "/invitations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) AcceptInvitation(ctx context.Context, groupID uuid.UUID) error {
	return c.Post(ctx, "/invitations/"+groupID.String()+"/accept", nil, nil)
}

func (c *Client) RejectInvitation(ctx context.Context, groupID uuid.UUID) error {
	return c.Post(ctx, "/invitations/"+groupID.String()+"/reject", nil, nil)
}

// LoadGroupSnapshot fetches the group's spaces, inventories and items in one
// call. It satisfies hierarchy.Loader.
func (c *Client) LoadGroupSnapshot(ctx context.Context, groupID uuid.UUID) (*hierarchy.Snapshot, error) {
	var resp Response[hierarchy.Snapshot]
	if err := c.Get(ctx, "/groups/"+groupID.String()+"/snapshot", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Search(ctx context.Context, groupID uuid.UUID, term string) (*hierarchy.SearchResult, error) {
	var resp Response[hierarchy.SearchResult]
	params := url.Values{"q": {term}}
	if err := c.Get(ctx, "/groups/"+groupID.String()+"/search", params, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Path(ctx context.Context, groupID uuid.UUID, kind hierarchy.EntityKind, id uuid.UUID) ([]hierarchy.Crumb, error) {
	var resp Response[[]hierarchy.Crumb]
	path := "/groups/" + groupID.String() + "/path/" + string(kind) + "/" + id.String()
	if err := c.Get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func (c *Client) CreateSpace(ctx context.Context, groupID uuid.UUID, name string, description *string, parentID *uuid.UUID) (*models.Space, error) {
	var resp Response[models.Space]
	body := map[string]interface{}{
		"groupID":     groupID.String(),
		"name":        name,
		"description": description,
		"parentID":    optionalID(parentID),
	}
	if err := c.Post(ctx, "/spaces", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateSpace(ctx context.Context, id uuid.UUID, name, description *string) (*models.Space, error) {
	var resp Response[models.Space]
	body := map[string]*string{"name": name, "description": description}
	if err := c.Put(ctx, "/spaces/"+id.String(), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteSpace(ctx context.Context, id uuid.UUID) error {
	return c.Delete(ctx, "/spaces/"+id.String(), nil)
}

// SetSpaceParent nests a space under parentID, or makes it a root when nil.
func (c *Client) SetSpaceParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) (*models.Space, error) {
	var resp Response[models.Space]
	body := map[string]*string{"parentID": optionalID(parentID)}
	if err := c.Put(ctx, "/spaces/"+id.String()+"/parent", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) CreateInventory(ctx context.Context, groupID uuid.UUID, name string, description *string, spaceID, inventoryID *uuid.UUID) (*models.Inventory, error) {
	var resp Response[models.Inventory]
	body := map[string]interface{}{
		"groupID":           groupID.String(),
		"name":              name,
		"description":       description,
		"parentSpaceID":     optionalID(spaceID),
		"parentInventoryID": optionalID(inventoryID),
	}
	if err := c.Post(ctx, "/inventories", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateInventory(ctx context.Context, id uuid.UUID, name, description *string) (*models.Inventory, error) {
	var resp Response[models.Inventory]
	body := map[string]*string{"name": name, "description": description}
	if err := c.Put(ctx, "/inventories/"+id.String(), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteInventory(ctx context.Context, id uuid.UUID) error {
	return c.Delete(ctx, "/inventories/"+id.String(), nil)
}

// SetInventoryParent places an inventory. kind is "space", "inventory" or
// "none"; id is ignored for "none".
func (c *Client) SetInventoryParent(ctx context.Context, id uuid.UUID, kind string, parentID *uuid.UUID) (*models.Inventory, error) {
	var resp Response[models.Inventory]
	body := map[string]interface{}{"kind": kind, "id": optionalID(parentID)}
	if err := c.Put(ctx, "/inventories/"+id.String()+"/parent", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

type NewItem struct {
	Name        string
	Quantity    *int
	Description *string
	Color       *string
	Price       *decimal.Decimal
	InventoryID *uuid.UUID
	SpaceID     *uuid.UUID
}

func (c *Client) CreateItem(ctx context.Context, groupID uuid.UUID, item NewItem) (*models.Item, error) {
	var resp Response[models.Item]
	body := map[string]interface{}{
		"groupID":     groupID.String(),
		"name":        item.Name,
		"quantity":    item.Quantity,
		"description": item.Description,
		"color":       item.Color,
		"price":       item.Price,
		"inventoryID": optionalID(item.InventoryID),
		"spaceID":     optionalID(item.SpaceID),
	}
	if err := c.Post(ctx, "/items", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

type ItemEdit struct {
	Name        *string          `json:"name,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Description *string          `json:"description,omitempty"`
	Color       *string          `json:"color,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ClearPrice  bool             `json:"clearPrice,omitempty"`
}

func (c *Client) UpdateItem(ctx context.Context, id uuid.UUID, edit ItemEdit) (*models.Item, error) {
	var resp Response[models.Item]
	if err := c.Put(ctx, "/items/"+id.String(), edit, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return c.Delete(ctx, "/items/"+id.String(), nil)
}

// MoveItem places an item in exactly one of inventoryID or spaceID.
func (c *Client) MoveItem(ctx context.Context, id uuid.UUID, inventoryID, spaceID *uuid.UUID) (*models.Item, error) {
	var resp Response[models.Item]
	body := map[string]*string{
		"inventoryID": optionalID(inventoryID),
		"spaceID":     optionalID(spaceID),
	}
	if err := c.Post(ctx, "/items/"+id.String()+"/move", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
