package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expensio/expense-ledger/internal/access/extcodec"
	"github.com/expensio/expense-ledger/internal/application/service"
	"github.com/expensio/expense-ledger/internal/domain/entity"
	"github.com/expensio/expense-ledger/internal/domain/ledger"
	"github.com/expensio/expense-ledger/internal/domain/workflow"
	"github.com/expensio/expense-ledger/internal/proposal"
)

// principalHeader carries the pre-verified caller identity. The environment in
// front of this service is responsible for authenticating it.
const principalHeader = "X-Principal"

// Handlers contains all HTTP request handlers
type Handlers struct {
	identityService   service.IdentityService
	managerService    service.ManagerService
	packageService    service.PackageService
	governanceService service.GovernanceService
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	identityService service.IdentityService,
	managerService service.ManagerService,
	packageService service.PackageService,
	governanceService service.GovernanceService,
	logger Logger,
) *Handlers {
	return &Handlers{
		identityService:   identityService,
		managerService:    managerService,
		packageService:    packageService,
		governanceService: governanceService,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// principal extracts the caller identity from the request header. Responds
// with 400 and returns false when the header is missing.
func (h *Handlers) principal(c *gin.Context) (entity.Principal, bool) {
	p := c.GetHeader(principalHeader)
	if p == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "missing " + principalHeader + " header",
		})
		return "", false
	}
	return entity.Principal(p), true
}

// respondError maps domain sentinels to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, entity.ErrNotAuthorized),
		errors.Is(err, entity.ErrUserIsNotMember),
		errors.Is(err, entity.ErrCannotApproveOwnExpense):
		status = http.StatusForbidden
	case errors.Is(err, entity.ErrAlreadyExists),
		errors.Is(err, entity.ErrAlreadyBound),
		errors.Is(err, entity.ErrIncorrectNonce):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrUninitialized):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrDataTooLarge),
		errors.Is(err, entity.ErrPackageFrozen),
		errors.Is(err, entity.ErrPackageMissingInfo),
		errors.Is(err, entity.ErrPackageNotApproved),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, ledger.ErrAmountOverflow),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, proposal.ErrFailedToParse),
		errors.Is(err, proposal.ErrInvalidProposal),
		errors.Is(err, extcodec.ErrFailedToParse),
		errors.Is(err, extcodec.ErrUnknownSchema):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
	}

	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

// RegisterUserRequest is the payload for POST /api/users
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	RealName string `json:"real_name"`
}

// RegisterUser handles POST /api/users
func (h *Handlers) RegisterUser(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, err := h.identityService.Register(c.Request.Context(), caller, req.Username, req.RealName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: user})
}

// GetUser handles GET /api/users/:principal
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.identityService.Get(c.Request.Context(), entity.Principal(c.Param("principal")))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// CreateManagerRequest is the payload for POST /api/managers
type CreateManagerRequest struct {
	Name                string `json:"name" binding:"required"`
	InitialBalance      uint64 `json:"initial_balance"`
	MembershipTokenMint string `json:"membership_token_mint"`
}

// CreateManager handles POST /api/managers
func (h *Handlers) CreateManager(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req CreateManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	manager, err := h.managerService.Create(c.Request.Context(), req.Name, caller, req.InitialBalance, req.MembershipTokenMint)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: manager})
}

// GetManager handles GET /api/managers/:name
func (h *Handlers) GetManager(c *gin.Context) {
	manager, err := h.managerService.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: manager})
}

// GetManagerBalance handles GET /api/managers/:name/balance
func (h *Handlers) GetManagerBalance(c *gin.Context) {
	account, err := h.managerService.GetBalance(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: account})
}

// BindManagerRequest is the payload for POST /api/managers/:name/bind
type BindManagerRequest struct {
	Kind                string `json:"kind" binding:"required"`
	Realm               string `json:"realm"`
	GovernanceAuthority string `json:"governance_authority"`
	Squad               string `json:"squad"`
}

// BindManager handles POST /api/managers/:name/bind
func (h *Handlers) BindManager(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req BindManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	name := c.Param("name")

	var manager *entity.ExpenseManager
	var err error
	switch req.Kind {
	case entity.BindingGovernance:
		manager, err = h.managerService.BindGovernance(c.Request.Context(), caller, name, req.Realm, req.GovernanceAuthority)
	case entity.BindingSquad:
		manager, err = h.managerService.BindSquad(c.Request.Context(), caller, name, req.Squad)
	default:
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown binding kind"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: manager})
}

// ManagerWithdrawRequest is the payload for POST /api/managers/:name/withdraw
type ManagerWithdrawRequest struct {
	Amount      uint64 `json:"amount" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

// WithdrawFromManager handles POST /api/managers/:name/withdraw
func (h *Handlers) WithdrawFromManager(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req ManagerWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.managerService.Withdraw(c.Request.Context(), caller, c.Param("name"), req.Amount, req.Destination); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// GrantAccessRequest is the payload for POST /api/managers/:name/access
type GrantAccessRequest struct {
	User string `json:"user" binding:"required"`
	Role string `json:"role" binding:"required"`
}

// GrantAccess handles POST /api/managers/:name/access
func (h *Handlers) GrantAccess(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req GrantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	record, err := h.governanceService.GrantAccess(c.Request.Context(), caller, c.Param("name"),
		entity.Principal(req.User), entity.Role(req.Role))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: record})
}

// PackageRequest is the payload for package creation and update
type PackageRequest struct {
	Manager     string `json:"manager" binding:"required"`
	Nonce       uint32 `json:"nonce"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    uint64 `json:"quantity"`
}

// CreatePackage handles POST /api/packages
func (h *Handlers) CreatePackage(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	pkg, err := h.packageService.Create(c.Request.Context(), caller, req.Manager, req.Nonce,
		req.Name, req.Description, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: pkg})
}

// UpdatePackage handles PATCH /api/packages
func (h *Handlers) UpdatePackage(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	pkg, err := h.packageService.Update(c.Request.Context(), caller, req.Manager, req.Nonce,
		req.Name, req.Description, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: pkg})
}

// PackageRefRequest identifies a caller-owned package
type PackageRefRequest struct {
	Manager string `json:"manager" binding:"required"`
	Nonce   uint32 `json:"nonce"`
}

// SubmitPackage handles POST /api/packages/submit
func (h *Handlers) SubmitPackage(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req PackageRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	pkg, err := h.packageService.Submit(c.Request.Context(), caller, req.Manager, req.Nonce)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: pkg})
}

// ReviewRequest identifies another principal's package under review
type ReviewRequest struct {
	Manager string `json:"manager" binding:"required"`
	Owner   string `json:"owner" binding:"required"`
	Nonce   uint32 `json:"nonce"`
}

// ApprovePackage handles POST /api/packages/approve
func (h *Handlers) ApprovePackage(c *gin.Context) {
	h.review(c, h.packageService.Approve)
}

// DenyPackage handles POST /api/packages/deny
func (h *Handlers) DenyPackage(c *gin.Context) {
	h.review(c, h.packageService.Deny)
}

func (h *Handlers) review(c *gin.Context, fn func(ctx context.Context, reviewer entity.Principal, manager string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error)) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	pkg, err := fn(c.Request.Context(), caller, req.Manager, entity.Principal(req.Owner), req.Nonce)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: pkg})
}

// WithdrawPackage handles POST /api/packages/withdraw
func (h *Handlers) WithdrawPackage(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req PackageRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	pkg, err := h.packageService.Withdraw(c.Request.Context(), caller, req.Manager, req.Nonce)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: pkg})
}

// ListPackages handles GET /api/packages?manager=...&owner=...
func (h *Handlers) ListPackages(c *gin.Context) {
	manager := c.Query("manager")
	owner := c.Query("owner")
	if manager == "" || owner == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "manager and owner query parameters are required"})
		return
	}

	pkgs, err := h.packageService.ListByOwner(c.Request.Context(), manager, entity.Principal(owner))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: pkgs})
}

// ExecuteProposalRequest is the payload for POST /api/proposals/execute
type ExecuteProposalRequest struct {
	Manager    string `json:"manager" binding:"required"`
	ProposalID string `json:"proposal_id" binding:"required"`
}

// ExecuteProposal handles POST /api/proposals/execute
func (h *Handlers) ExecuteProposal(c *gin.Context) {
	caller, ok := h.principal(c)
	if !ok {
		return
	}

	var req ExecuteProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	verdict, err := h.governanceService.ExecuteProposal(c.Request.Context(), caller, req.Manager, req.ProposalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: verdict})
}
