package sqlstore

import (
	"context"
	"regexp"
	"testing"
	"time"

	"phmagent/domain/core"
	"phmagent/ports"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, driver string) (Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	dialect, err := DialectFor(driver)
	require.NoError(t, err)
	return NewReadingRepository(sqlx.NewDb(mockDB, driver), dialect), mock
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestListColumns_OrdinalOrder(t *testing.T) {
	store, mock := newMockStore(t, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("equipment_data").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("Device_ID").AddRow("Time").AddRow("Vibration"))

	columns, err := store.ListColumns(context.Background(), "equipment_data")
	require.NoError(t, err)
	assert.Equal(t, []string{"Device_ID", "Time", "Vibration"}, columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListColumns_MissingTable(t *testing.T) {
	store, mock := newMockStore(t, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	_, err := store.ListColumns(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrTableNotFound)
}

func TestFetchRowsOnDate_Postgres(t *testing.T) {
	store, mock := newMockStore(t, "postgres")
	ts := time.Date(2025, 7, 25, 8, 0, 0, 0, time.UTC)

	rows := mock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("Device_ID").OfType("TEXT", ""),
		sqlmock.NewColumn("Time").OfType("TIMESTAMP", time.Time{}),
		sqlmock.NewColumn("Vibration").OfType("NUMERIC", []byte{}),
	).
		AddRow("pump-1", ts, []byte("0.125")).
		AddRow("pump-2", ts.Add(time.Minute), nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "equipment_data" WHERE CAST("Time" AS DATE) = $1 ORDER BY "Time" ASC`)).
		WithArgs("2025-07-25").
		WillReturnRows(rows)

	got, err := store.FetchRowsOnDate(context.Background(), "equipment_data", "Time", mustDate(t, "2025-07-25"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"Device_ID", "Time", "Vibration"}, got[0].Columns())
	v, _ := got[0].Get("Vibration")
	assert.Equal(t, 0.125, v)
	v, _ = got[1].Get("Vibration")
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRowsOnDate_MySQLQuoting(t *testing.T) {
	store, mock := newMockStore(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `equipment_data` WHERE DATE(`Device_Time`) = ? ORDER BY `Device_Time` ASC")).
		WithArgs("2025-07-18").
		WillReturnRows(sqlmock.NewRows([]string{"Device_Time", "VibrationX"}))

	got, err := store.FetchRowsOnDate(context.Background(), "equipment_data", "Device_Time", mustDate(t, "20250718"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRowsOnDate_RejectsUnsafeIdentifier(t *testing.T) {
	store, mock := newMockStore(t, "mysql")

	_, err := store.FetchRowsOnDate(context.Background(), "equipment_data", "Time` = 1; DROP TABLE x; --", mustDate(t, "2025-07-18"))
	assert.ErrorIs(t, err, core.ErrUnsafeIdentifier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchMaxOnDate(t *testing.T) {
	store, mock := newMockStore(t, "postgres")
	ts := time.Date(2025, 7, 25, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE CAST("Time" AS DATE) = $1 AND "Vibration" IS NOT NULL ORDER BY "Vibration" DESC LIMIT 1`)).
		WithArgs("2025-07-25").
		WillReturnRows(sqlmock.NewRows([]string{"Time", "Vibration"}).AddRow(ts, 0.42))

	row, err := store.FetchMaxOnDate(context.Background(), "equipment_data", "Time", "Vibration", mustDate(t, "2025-07-25"))
	require.NoError(t, err)
	v, _ := row.Get("Vibration")
	assert.Equal(t, 0.42, v)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY")).
		WillReturnRows(sqlmock.NewRows([]string{"Time", "Vibration"}))
	row, err = store.FetchMaxOnDate(context.Background(), "equipment_data", "Time", "Vibration", mustDate(t, "2025-07-26"))
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestTimeRange(t *testing.T) {
	store, mock := newMockStore(t, "mysql")
	min := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(`Time`), MAX(`Time`) FROM `equipment_data`")).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(min, []byte("2025-07-25 23:59:00")))

	lo, hi, err := store.TimeRange(context.Background(), "equipment_data", "Time")
	require.NoError(t, err)
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.True(t, lo.Equal(min))
	assert.Equal(t, 25, hi.Day())
}

func TestInsertRows_SingleTransaction(t *testing.T) {
	store, mock := newMockStore(t, "postgres")
	ts := time.Date(2025, 7, 25, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "equipment_data" ("Time", "Vibration") VALUES ($1, $2)`))
	prep.ExpectExec().WithArgs(ts, 0.1).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(ts.Add(time.Second), nil).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := store.InsertRows(context.Background(), "equipment_data", []string{"Time", "Vibration"}, [][]interface{}{
		{ts, 0.1},
		{ts.Add(time.Second), nil},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRows_RollsBackOnShortRow(t *testing.T) {
	store, mock := newMockStore(t, "postgres")

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "t"`))
	mock.ExpectRollback()

	_, err := store.InsertRows(context.Background(), "t", []string{"a", "b"}, [][]interface{}{{1}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTable(t *testing.T) {
	store, mock := newMockStore(t, "mysql")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `equipment_data` (`Time` DATETIME(6), `Vibration` DOUBLE, `Device_ID` TEXT)")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.CreateTable(context.Background(), "equipment_data", []ports.ColumnDef{
		{Name: "Time", Kind: ports.ColumnTimestamp},
		{Name: "Vibration", Kind: ports.ColumnNumeric},
		{Name: "Device_ID", Kind: ports.ColumnText},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
