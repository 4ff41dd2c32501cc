package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crm-access/internal/authz"
	"crm-access/internal/features/role"

	"github.com/xuri/excelize/v2"
)

type ReportService interface {
	// AccessMatrix renders every role's permission matrix as a spreadsheet:
	// one row per role, one column per (module, action), scope tokens in the
	// cells. Denied cells stay empty.
	AccessMatrix(ctx context.Context) ([]byte, string, error)
}

type ReportServiceImpl struct {
	RoleService role.RoleService
}

func NewReportService(roleService role.RoleService) ReportService {
	return &ReportServiceImpl{
		RoleService: roleService,
	}
}

func (s *ReportServiceImpl) AccessMatrix(ctx context.Context) ([]byte, string, error) {
	roles, err := s.RoleService.ListRoles(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Access Matrix"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	type column struct {
		module authz.Module
		action authz.Action
	}
	var columns []column
	for _, m := range authz.Modules {
		if m == authz.ModuleDashboard {
			columns = append(columns, column{module: m, action: authz.ActionRead})
			continue
		}
		for _, a := range authz.Actions {
			columns = append(columns, column{module: m, action: a})
		}
	}

	cell, _ := excelize.CoordinatesToCellName(1, 1)
	f.SetCellValue(sheetName, cell, "Role")
	f.SetCellStyle(sheetName, cell, cell, headerStyle)
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		f.SetCellValue(sheetName, cell, fmt.Sprintf("%s.%s", col.module, col.action))
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, r := range roles {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		f.SetCellValue(sheetName, cell, r.Name)

		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
			switch scope := r.Permissions.Scope(col.module, col.action); scope {
			case authz.ScopeDenied:
				// empty cell
			default:
				f.SetCellValue(sheetName, cell, string(scope))
			}
		}
	}

	nameCol, _ := excelize.ColumnNumberToName(1)
	f.SetColWidth(sheetName, nameCol, nameCol, 24)
	lastCol, _ := excelize.ColumnNumberToName(len(columns) + 1)
	f.SetColWidth(sheetName, "B", lastCol, 14)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("access_matrix_%s.xlsx", time.Now().Format("20060102_150405"))
	filename = strings.ReplaceAll(filename, " ", "_")
	return buffer.Bytes(), filename, nil
}
