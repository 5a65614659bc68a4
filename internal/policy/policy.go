// Package policy is the single authorization table of the back office.
// Every mutating operation is looked up by (operation, role); there are no per-endpoint checks.
package policy

import (
	"fmt"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/pkg/apperror"
)

type Operation string

const (
	OpFinishPurchaseOrder  Operation = "purchase_order:finish"
	OpCancelPurchaseOrder  Operation = "purchase_order:cancel"
	OpCreatePurchaseOrder  Operation = "purchase_order:create"
	OpViewPurchaseOrder    Operation = "purchase_order:view"
	OpCreatePurchaseReturn Operation = "purchase_return:create"
	OpFinishPurchaseReturn Operation = "purchase_return:finish"
	OpCancelPurchaseReturn Operation = "purchase_return:cancel"
	OpViewPurchaseReturn   Operation = "purchase_return:view"
	OpCreateSalesOrder     Operation = "sales_order:create"
	OpFinishSalesOrder     Operation = "sales_order:finish"
	OpCancelSalesOrder     Operation = "sales_order:cancel"
	OpViewSalesOrder       Operation = "sales_order:view"
	OpCreateSalesReturn    Operation = "sales_return:create"
	OpFinishSalesReturn    Operation = "sales_return:finish"
	OpCancelSalesReturn    Operation = "sales_return:cancel"
	OpViewSalesReturn      Operation = "sales_return:view"
	OpRecordPayment        Operation = "payment:record"
	OpViewPayment          Operation = "payment:view"
	OpNextCode             Operation = "code:next"
	OpManageMasterData     Operation = "master_data:manage"
	OpViewMasterData       Operation = "master_data:view"
	OpViewPurchasePrice    Operation = "product:view_purchase_price"
	OpViewDashboard        Operation = "dashboard:view"
)

var (
	everyone = []string{model.RoleMasterAdmin, model.RoleAdmin, model.RoleStaff}
	managers = []string{model.RoleMasterAdmin, model.RoleAdmin}
	owner    = []string{model.RoleMasterAdmin}
)

// table maps each operation to the roles allowed to perform it.
var table = map[Operation][]string{
	OpCreatePurchaseOrder:  managers,
	OpFinishPurchaseOrder:  managers,
	OpCancelPurchaseOrder:  managers,
	OpViewPurchaseOrder:    managers,
	OpCreatePurchaseReturn: managers,
	OpFinishPurchaseReturn: managers,
	OpCancelPurchaseReturn: managers,
	OpViewPurchaseReturn:   managers,
	OpCreateSalesOrder:     everyone,
	OpFinishSalesOrder:     everyone,
	OpCancelSalesOrder:     owner,
	OpViewSalesOrder:       everyone,
	OpCreateSalesReturn:    everyone,
	OpFinishSalesReturn:    managers,
	OpCancelSalesReturn:    managers,
	OpViewSalesReturn:      everyone,
	OpRecordPayment:        managers,
	OpViewPayment:          managers,
	OpNextCode:             managers,
	OpManageMasterData:     managers,
	OpViewMasterData:       everyone,
	OpViewPurchasePrice:    owner,
	OpViewDashboard:        everyone,
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// Allowed reports whether role may perform op. Unknown operations are denied.
func Allowed(op Operation, role string) bool {
	for _, r := range table[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize checks identity first, then the policy table.
func Authorize(actor Actor, op Operation) error {
	if actor.ID == "" {
		return apperror.Unauthorized("authentication required")
	}
	if !Allowed(op, actor.Role) {
		return apperror.Forbidden(fmt.Sprintf("role %q may not perform %s", actor.Role, op))
	}
	return nil
}

// Roles returns the roles allowed to perform op.
func Roles(op Operation) []string {
	return append([]string(nil), table[op]...)
}
