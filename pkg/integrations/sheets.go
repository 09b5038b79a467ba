package integrations

import (
	"context"
	"fmt"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/variables"
)

func (e *Executor) executeSheets(ctx context.Context, block *flow.IntegrationBlock, defs []flow.Variable, bindings variables.Bindings) Result {
	if e.sheets == nil {
		return errorResult("Google Sheets integration is not configured", "")
	}
	var opts SheetsOptions
	if err := decodeOptions(block.Options, &opts); err != nil {
		return errorResult("Google Sheets block misconfigured", err.Error())
	}
	if opts.SpreadsheetID == "" {
		return errorResult("Google Sheets block has no spreadsheet", "")
	}

	sub := func(s string) string { return variables.Substitute(s, defs, bindings) }

	row := make(ports.SheetsRow, len(opts.CellsToInsert))
	for _, cell := range opts.CellsToInsert {
		if cell.Column != "" {
			row[cell.Column] = sub(cell.Value)
		}
	}

	switch opts.Action {
	case SheetsInsertRow:
		if err := e.sheets.AppendRow(ctx, opts.SpreadsheetID, opts.SheetID, row); err != nil {
			return errorResult("Could not insert row in sheet", err.Error())
		}
		return successResult("Succesfully inserted a row in the sheet")

	case SheetsUpdateRow:
		if opts.ReferenceCell == nil {
			return errorResult("Update row action needs a reference cell", "")
		}
		err := e.sheets.UpdateRow(ctx, opts.SpreadsheetID, opts.SheetID,
			opts.ReferenceCell.Column, sub(opts.ReferenceCell.Value), row)
		if err != nil {
			return errorResult("Could not update row in sheet", err.Error())
		}
		return successResult("Succesfully updated a row in the sheet")

	case SheetsGetData:
		if opts.ReferenceCell == nil {
			return errorResult("Get data action needs a reference cell", "")
		}
		fetched, err := e.sheets.GetRow(ctx, opts.SpreadsheetID, opts.SheetID,
			opts.ReferenceCell.Column, sub(opts.ReferenceCell.Value))
		if err != nil {
			return errorResult("Could not fetch data from sheet", err.Error())
		}
		result := successResult("Succesfully fetched data from sheet")
		for _, extract := range opts.CellsToExtract {
			if extract.VariableID == "" {
				continue
			}
			if value, ok := fetched[extract.Column]; ok {
				result.SetVariables = append(result.SetVariables, VariableUpdate{
					VariableID: extract.VariableID,
					Value:      value,
				})
			}
		}
		return result

	default:
		return errorResult(fmt.Sprintf("Unknown sheets action %q", opts.Action), "")
	}
}
