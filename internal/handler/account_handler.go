package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"floweradmin/internal/errors"
	"floweradmin/internal/model"
	"floweradmin/internal/repository"
	"floweradmin/internal/service"
)

// sortableColumns is the allow-list for caller-supplied ordering.
var sortableColumns = map[string]bool{
	"id":         true,
	"first_name": true,
	"last_name":  true,
	"email":      true,
	"created_at": true,
	"updated_at": true,
}

// AccountHandler handles account management endpoints.
type AccountHandler struct {
	accountService service.AccountService
	auditService   service.AuditService
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accountService service.AccountService, auditService service.AuditService) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents an account creation request. Roles are
// deliberately not validated here: the lifecycle service owns the at-least-one
// -role rule and reports it as a domain error.
type CreateAccountRequest struct {
	FirstName         string `json:"first_name" validate:"required"`
	LastName          string `json:"last_name" validate:"required"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	Active            bool   `json:"active"`
	Confirmed         bool   `json:"confirmed"`
	Roles             []uint `json:"roles"`
	Permissions       []uint `json:"permissions"`
	ConfirmationEmail bool   `json:"confirmation_email"`
}

// UpdateAccountRequest represents an account update request.
type UpdateAccountRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Roles       []uint `json:"roles"`
	Permissions []uint `json:"permissions"`
}

// UpdatePasswordRequest represents a password change request.
type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// ListResponse represents one page of accounts.
type ListResponse struct {
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Items   []model.Account `json:"items"`
}

func listParams(c echo.Context) (repository.ListParams, error) {
	p := repository.ListParams{
		Page:    1,
		PerPage: 25,
		OrderBy: "created_at",
		Sort:    "desc",
	}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		p.Page = n
	}
	if v := c.QueryParam("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return p, echo.NewHTTPError(http.StatusBadRequest, "invalid per_page")
		}
		p.PerPage = n
	}
	if v := c.QueryParam("order_by"); v != "" {
		if !sortableColumns[v] {
			return p, echo.NewHTTPError(http.StatusBadRequest, "column is not sortable")
		}
		p.OrderBy = v
	}
	if v := c.QueryParam("sort"); v != "" {
		if v != "asc" && v != "desc" {
			return p, echo.NewHTTPError(http.StatusBadRequest, "sort must be asc or desc")
		}
		p.Sort = v
	}
	return p, nil
}

func accountID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid account ID",
			Code:  "INVALID_ID",
		})
	}
	return uint(id), nil
}

func domainError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// List godoc
// @Summary List active accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Param order_by query string false "Sort column"
// @Param sort query string false "asc or desc"
// @Success 200 {object} ListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/accounts [get]
func (h *AccountHandler) List(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	items, total, err := h.accountService.ListActive(c.Request().Context(), p)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, ListResponse{Total: total, Page: p.Page, PerPage: p.PerPage, Items: items})
}

// ListDeactivated godoc
// @Summary List deactivated accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ListResponse
// @Router /admin/accounts/deactivated [get]
func (h *AccountHandler) ListDeactivated(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	items, total, err := h.accountService.ListInactive(c.Request().Context(), p)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, ListResponse{Total: total, Page: p.Page, PerPage: p.PerPage, Items: items})
}

// ListDeleted godoc
// @Summary List soft-deleted accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ListResponse
// @Router /admin/accounts/deleted [get]
func (h *AccountHandler) ListDeleted(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	items, total, err := h.accountService.ListDeleted(c.Request().Context(), p)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, ListResponse{Total: total, Page: p.Page, PerPage: p.PerPage, Items: items})
}

// Get godoc
// @Summary Get account by id
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} model.Account
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/accounts/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	account, err := h.accountService.Get(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// Create godoc
// @Summary Create account
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAccountRequest true "Account data"
// @Success 201 {object} model.Account
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/accounts [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accountService.Create(c.Request().Context(), service.CreateAccountInput{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Password:          req.Password,
		Active:            req.Active,
		Confirmed:         req.Confirmed,
		RoleIDs:           req.Roles,
		PermissionIDs:     req.Permissions,
		ConfirmationEmail: req.ConfirmationEmail,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, account)
}

// Update godoc
// @Summary Update account
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param request body UpdateAccountRequest true "Account data"
// @Success 200 {object} model.Account
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/accounts/{id} [patch]
func (h *AccountHandler) Update(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accountService.Update(c.Request().Context(), id, service.UpdateAccountInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		RoleIDs:       req.Roles,
		PermissionIDs: req.Permissions,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// UpdatePassword godoc
// @Summary Change account password
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param request body UpdatePasswordRequest true "New password"
// @Success 200 {object} model.Account
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/accounts/{id}/password [patch]
func (h *AccountHandler) UpdatePassword(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	var req UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accountService.UpdatePassword(c.Request().Context(), id, req.Password)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// Mark godoc
// @Summary Activate or deactivate an account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param status path int true "Target status (0 or 1)"
// @Success 200 {object} model.Account
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/accounts/{id}/mark/{status} [post]
func (h *AccountHandler) Mark(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	status := c.Param("status")
	if status != "0" && status != "1" {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be 0 or 1")
	}

	account, err := h.accountService.Mark(c.Request().Context(), ActorID(c), id, status == "1")
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// Confirm godoc
// @Summary Confirm an account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} model.Account
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/accounts/{id}/confirm [post]
func (h *AccountHandler) Confirm(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	account, err := h.accountService.Confirm(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// ConfirmByCode godoc
// @Summary Confirm an account by emailed code
// @Tags accounts
// @Produce json
// @Param code path string true "Confirmation code"
// @Success 200 {object} model.Account
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /accounts/confirm/{code} [get]
func (h *AccountHandler) ConfirmByCode(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing confirmation code")
	}
	account, err := h.accountService.ConfirmByCode(c.Request().Context(), code)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// Unconfirm godoc
// @Summary Withdraw an account's confirmation
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} model.Account
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/accounts/{id}/unconfirm [post]
func (h *AccountHandler) Unconfirm(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	account, err := h.accountService.Unconfirm(c.Request().Context(), ActorID(c), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// Delete godoc
// @Summary Soft-delete an account
// @Tags accounts
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/accounts/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	if err := h.accountService.Delete(c.Request().Context(), id); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeletePermanently godoc
// @Summary Permanently delete a soft-deleted account
// @Tags accounts
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/accounts/{id}/delete [post]
func (h *AccountHandler) DeletePermanently(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	if err := h.accountService.ForceDelete(c.Request().Context(), id); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Restore godoc
// @Summary Restore a soft-deleted account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} model.Account
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/accounts/{id}/restore [post]
func (h *AccountHandler) Restore(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	account, err := h.accountService.Restore(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// Audit godoc
// @Summary List audit records of an account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param limit query int false "Max records"
// @Success 200 {array} model.AuditRecord
// @Router /admin/accounts/{id}/audit [get]
func (h *AccountHandler) Audit(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	records, err := h.auditService.History(c.Request().Context(), id, limit)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, records)
}
