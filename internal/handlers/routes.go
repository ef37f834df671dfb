package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Set bundles the handlers mounted under /api.
type Set struct {
	Auth        *AuthHandler
	Groups      *GroupsHandler
	Invitations *InvitationsHandler
	Hierarchy   *HierarchyHandler
}

// Register mounts every API route on api. requireAuth guards everything
// except registration, login, refresh and logout.
func Register(api fiber.Router, requireAuth fiber.Handler, h Set) {
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/refresh", h.Auth.Refresh)
	authRoutes.Post("/logout", h.Auth.Logout)
	authRoutes.Get("/me", requireAuth, h.Auth.Me)
	authRoutes.Put("/me", requireAuth, h.Auth.UpdateMe)

	groupRoutes := api.Group("/groups", requireAuth)
	groupRoutes.Post("/", h.Groups.Create)
	groupRoutes.Get("/", h.Groups.List)
	groupRoutes.Get("/:id", h.Groups.Get)
	groupRoutes.Put("/:id", h.Groups.Update)
	groupRoutes.Delete("/:id", h.Groups.Delete)
	groupRoutes.Get("/:id/members", h.Groups.ListMembers)
	groupRoutes.Post("/:id/members", h.Groups.Invite)
	groupRoutes.Put("/:id/members/:userId", h.Groups.UpdateMemberRole)
	groupRoutes.Delete("/:id/members/:userId", h.Groups.RemoveMember)
	groupRoutes.Get("/:id/activity", h.Groups.Activity)
	groupRoutes.Get("/:id/snapshot", h.Hierarchy.Snapshot)
	groupRoutes.Get("/:id/search", h.Hierarchy.Search)
	groupRoutes.Get("/:id/path/:kind/:entityId", h.Hierarchy.Path)

	invitationRoutes := api.Group("/invitations", requireAuth)
	invitationRoutes.Get("/", h.Invitations.List)
	invitationRoutes.Post("/:groupId/accept", h.Invitations.Accept)
	invitationRoutes.Post("/:groupId/reject", h.Invitations.Reject)

	spaceRoutes := api.Group("/spaces", requireAuth)
	spaceRoutes.Post("/", h.Hierarchy.CreateSpace)
	spaceRoutes.Put("/:id", h.Hierarchy.UpdateSpace)
	spaceRoutes.Delete("/:id", h.Hierarchy.DeleteSpace)
	spaceRoutes.Put("/:id/parent", h.Hierarchy.SetSpaceParent)
	spaceRoutes.Get("/:id/spaces", h.Hierarchy.SpaceChildren)
	spaceRoutes.Get("/:id/inventories", h.Hierarchy.SpaceInventories)
	spaceRoutes.Get("/:id/items", h.Hierarchy.SpaceItems)

	inventoryRoutes := api.Group("/inventories", requireAuth)
	inventoryRoutes.Post("/", h.Hierarchy.CreateInventory)
	inventoryRoutes.Put("/:id", h.Hierarchy.UpdateInventory)
	inventoryRoutes.Delete("/:id", h.Hierarchy.DeleteInventory)
	inventoryRoutes.Put("/:id/parent", h.Hierarchy.SetInventoryParent)
	inventoryRoutes.Get("/:id/inventories", h.Hierarchy.InventoryChildren)
	inventoryRoutes.Get("/:id/items", h.Hierarchy.InventoryItems)

	itemRoutes := api.Group("/items", requireAuth)
	itemRoutes.Post("/", h.Hierarchy.CreateItem)
	itemRoutes.Put("/:id", h.Hierarchy.UpdateItem)
	itemRoutes.Delete("/:id", h.Hierarchy.DeleteItem)
	itemRoutes.Post("/:id/move", h.Hierarchy.MoveItem)
}
