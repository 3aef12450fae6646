package service

import (
	"bitwise74/expense-api/internal/model"
	"bytes"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

func (s *ServiceSuite) TestExportReport() {
	id := s.register("Alice", "a@x.com")
	s.add(id, "10", "lunch", "food")
	s.add(id, "2.50", "bus", "travel")

	link, err := s.reports.Export(s.ctx, id)
	s.Require().NoError(err)

	s.True(strings.HasPrefix(link.ObjectKey, "reports/"+id+"/"))
	s.True(strings.HasSuffix(link.ObjectKey, ".xlsx"))
	s.Equal(2, link.Rows)
	s.Contains(link.URL, link.ObjectKey)
	s.Contains(link.URL, "ttl=1h0m0s")

	body, ok := s.store.objects[link.ObjectKey]
	s.Require().True(ok)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	s.Require().NoError(err)
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	s.Require().NoError(err)
	s.Require().Len(rows, 4)
	s.Equal("Description", rows[0][2])
	s.Equal("lunch", rows[1][2])
	s.Equal("bus", rows[2][2])
	s.Equal("Total", rows[3][3])
	s.Equal("12.5", rows[3][4])

	links, err := s.reports.List(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(links, 1)
	s.Equal(link.ObjectKey, links[0].ObjectKey)
}

func (s *ServiceSuite) TestExportWithoutExpenses() {
	id := s.register("Alice", "a@x.com")

	_, err := s.reports.Export(s.ctx, id)
	s.ErrorIs(err, ErrNoExpenses)
	s.Empty(s.store.objects)
}

func (s *ServiceSuite) TestExportUploadFailure() {
	id := s.register("Alice", "a@x.com")
	s.add(id, "10", "lunch", "food")
	s.store.err = errBoom

	_, err := s.reports.Export(s.ctx, id)
	s.ErrorIs(err, errBoom)

	var n int64
	s.Require().NoError(s.db.Model(model.Report{}).Count(&n).Error)
	s.Zero(n)
}

func (s *ServiceSuite) TestReportsDisabled() {
	id := s.register("Alice", "a@x.com")
	r := NewReports(s.db, s.expenses, nil, time.Hour)

	_, err := r.Export(s.ctx, id)
	s.ErrorIs(err, ErrReportsDisabled)

	_, err = r.List(s.ctx, id)
	s.ErrorIs(err, ErrReportsDisabled)
}
