package source

import (
	"encoding/csv"
	"errors"
	"io"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
)

// DefaultIncidentLimit is how many incident rows are kept by default. The
// full yearly export has about 150,000 rows.
const DefaultIncidentLimit = 100

// Columns of the SF police incident export.
const (
	IncidentNumber   = "IncidntNum"
	IncidentCategory = "Category"
	IncidentDescript = "Descript"
	IncidentDay      = "DayOfWeek"
	IncidentDate     = "Date"
	IncidentTime     = "Time"
	IncidentDistrict = "PdDistrict"
	IncidentResolved = "Resolution"
	IncidentAddress  = "Address"
	IncidentX        = "X"
	IncidentY        = "Y"
	IncidentLocation = "Location"
	IncidentPdID     = "PdId"
)

// IncidentSchema lists the columns the map helpers rely on. X is longitude
// and Y latitude.
var IncidentSchema = frame.Schema{
	{Name: IncidentCategory, Kind: frame.KindText},
	{Name: IncidentX, Kind: frame.KindFloat},
	{Name: IncidentY, Kind: frame.KindFloat},
}

// ReadIncidents reads at most limit data rows from an incident CSV. A limit
// of zero or less reads everything. The header row names the columns;
// short rows are padded with nulls.
func ReadIncidents(r io.Reader, limit int) (*frame.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.EmptyInput("read incidents")
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "read incident header")
	}

	var records [][]string
	for limit <= 0 || len(records) < limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "read incident row %d", len(records)+1)
		}
		records = append(records, rec)
	}

	t := frame.FromRecords(header, records)
	if err := IncidentSchema.Check(t); err != nil {
		return nil, err
	}
	return t, nil
}
