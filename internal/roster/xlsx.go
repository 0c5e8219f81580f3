package roster

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

// ParseXLSX applies the CSV import rules to the first sheet of a workbook.
func ParseXLSX(r io.Reader, base int) ([]models.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrUnsupportedFile, "failed to open workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, appErrors.ErrNoValidRows
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrUnsupportedFile, fmt.Sprintf("failed to read sheet %s", sheet))
	}
	if len(rows) <= 1 {
		return nil, appErrors.ErrNoValidRows
	}
	return build(rows[1:], base)
}
