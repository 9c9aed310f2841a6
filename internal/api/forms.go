package api

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"arcade-inventory-backend/internal/ledger"
	"arcade-inventory-backend/internal/model"
)

// formError is a validation failure whose message is safe to show.
type formError string

func (e formError) Error() string { return string(e) }

func locationFromForm(v url.Values) (*model.Location, error) {
	loc := &model.Location{
		Name:         formString(v, "name"),
		Type:         formString(v, "type"),
		Address:      formString(v, "address"),
		City:         formString(v, "city"),
		State:        formString(v, "state"),
		ZipCode:      formString(v, "zip_code"),
		ContactName:  formString(v, "contact_name"),
		ContactPhone: formString(v, "contact_phone"),
		ContactEmail: formString(v, "contact_email"),
		Notes:        formString(v, "notes"),
		Active:       formBool(v, "active"),
	}
	if loc.Name == "" || loc.Type == "" {
		return nil, formError("Location name and type are required")
	}

	split, err := ledger.ParseOptionalAmount(v.Get("revenue_split"))
	if err != nil {
		return nil, formError("Revenue split must be a number")
	}
	if err := ledger.ValidateSplit(split); err != nil {
		return nil, formError("Revenue split must be between 0 and 100")
	}
	loc.RevenueSplit = split
	return loc, nil
}

func machineFromForm(v url.Values) (*model.Machine, error) {
	m := &model.Machine{
		Name:          formString(v, "name"),
		Manufacturer:  formString(v, "manufacturer"),
		MachineType:   formString(v, "machine_type"),
		Status:        formString(v, "status"),
		Description:   formString(v, "description"),
		Notes:         formString(v, "notes"),
		Featured:      formBool(v, "featured"),
		VisibleOnSite: formBool(v, "visible_on_site"),
		Tags:          datatypes.JSONSlice[string](parseTags(v["tags"])),
	}
	if m.Name == "" {
		return nil, formError("Machine name is required")
	}
	if m.MachineType == "" {
		m.MachineType = model.DefaultMachineType
	}
	if m.Status == "" {
		m.Status = model.StatusAvailable
	}

	var err error
	if m.YearManufactured, err = optionalInt(v, "year_manufactured"); err != nil {
		return nil, err
	}
	if m.TotalPlays, err = plainInt(v, "total_plays"); err != nil {
		return nil, err
	}
	if m.DisplayOrder, err = plainInt(v, "display_order"); err != nil {
		return nil, err
	}
	if m.CurrentLocationID, err = optionalID(v, "current_location_id"); err != nil {
		return nil, err
	}

	if m.InitialCost, err = ledger.ParseOptionalAmount(v.Get("initial_cost")); err != nil {
		return nil, formError("Initial cost must be a number")
	}
	if m.SaleAmount, err = ledger.ParseOptionalAmount(v.Get("sale_amount")); err != nil {
		return nil, formError("Sale amount must be a number")
	}

	dates := []struct {
		key string
		dst **time.Time
	}{
		{"purchase_date", &m.PurchaseDate},
		{"sale_date", &m.SaleDate},
		{"last_maintenance_date", &m.LastMaintenanceDate},
		{"next_maintenance_due", &m.NextMaintenanceDue},
	}
	for _, d := range dates {
		t, err := ledger.ParseOptionalDate(v.Get(d.key))
		if err != nil {
			return nil, formError("Invalid date for " + strings.ReplaceAll(d.key, "_", " "))
		}
		*d.dst = t
	}
	return m, nil
}

// parseTags accepts repeated values, comma-separated lists, or both.
func parseTags(raw []string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			tags = append(tags, t)
		}
	}
	return tags
}

func plainInt(v url.Values, key string) (int, error) {
	s := formString(v, key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, formError(strings.ReplaceAll(key, "_", " ") + " must be a whole number")
	}
	return n, nil
}

func optionalInt(v url.Values, key string) (*int, error) {
	if formString(v, key) == "" {
		return nil, nil
	}
	n, err := plainInt(v, key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optionalID(v url.Values, key string) (*uint, error) {
	s := formString(v, key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return nil, formError("Invalid " + strings.ReplaceAll(key, "_", " "))
	}
	id := uint(n)
	return &id, nil
}

func asFormError(err error) (string, bool) {
	var fe formError
	if errors.As(err, &fe) {
		return string(fe), true
	}
	return "", false
}
