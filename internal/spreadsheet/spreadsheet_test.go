package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readAll(t *testing.T, src Source, section Section) []Row {
	t.Helper()
	r, err := src.Open(context.Background(), section)
	require.NoError(t, err)
	defer r.Close()

	var rows []Row
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestDefaultMapping(t *testing.T) {
	m := DefaultMapping()

	assert.Equal(t, "KLIENCI", m.SheetName(SectionClients))
	assert.Equal(t, "WIZYTY", m.SheetName(SectionAppointments))

	cases := []struct {
		section Section
		header  string
		want    string
	}{
		{SectionClients, "Imie Nazwisko", FieldFullName},
		{SectionClients, "  telefon   KONTAKTOWY ", FieldPhone},
		{SectionClients, "e-mail.", FieldEmail},
		{SectionClients, "full_name", FieldFullName},
		{SectionAppointments, "ID Klienta", FieldClientExternal},
		{SectionAppointments, "Godzina Rozpoczęcia", FieldStartTime},
		{SectionAppointments, "Moc , J/cm3", FieldPower},
	}
	for _, tc := range cases {
		got, ok := m.Field(tc.section, tc.header)
		assert.True(t, ok, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}

	_, ok := m.Field(SectionClients, "Ulubiony kolor")
	assert.False(t, ok)
}

func TestParseMappingRejectsUnknownField(t *testing.T) {
	_, err := ParseMapping([]byte("columns:\n  clients:\n    Name: nickname\n"))
	assert.Error(t, err)
}

func TestLoadMappingFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sheets:
  clients: Customers
columns:
  clients:
    Name: full_name
    Mobile: phone_number
`), 0o600))

	m, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "Customers", m.SheetName(SectionClients))
	assert.Equal(t, "appointments", m.SheetName(SectionAppointments))

	f, ok := m.Field(SectionClients, "mobile")
	assert.True(t, ok)
	assert.Equal(t, FieldPhone, f)

	m = m.WithSheets("", "Visits")
	assert.Equal(t, "Customers", m.SheetName(SectionClients))
	assert.Equal(t, "Visits", m.SheetName(SectionAppointments))
}

func TestMemorySourceSkipsBlankRowsAndKeepsLines(t *testing.T) {
	src := NewMemorySource(nil, map[Section][][]string{
		SectionClients: {
			{"Imie Nazwisko", "Telefon kontaktowy", "Nieznana"},
			{" Anna Nowak ", "600 100 200", "x"},
			{"", "", ""},
			{"Ewa Kowalska"},
		},
	})

	rows := readAll(t, src, SectionClients)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Anna Nowak", rows[0].Get(FieldFullName))
	assert.Equal(t, "600 100 200", rows[0].Get(FieldPhone))
	assert.Len(t, rows[0].Values, 2)

	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "", rows[1].Get(FieldPhone))

	_, err := src.Open(context.Background(), SectionAppointments)
	assert.ErrorIs(t, err, ErrSectionMissing)
}

func TestCSVDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "KLIENCI.csv"),
		[]byte("\ufeffImie Nazwisko,e-mail.\nAnna Nowak,anna@example.com\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appointments.csv"),
		[]byte("Imię Nazwisko,Data,Kwota\nAnna Nowak,10.03.2025,\"150,50\"\n"), 0o600))

	src := NewCSVDirSource(dir, nil)

	clients := readAll(t, src, SectionClients)
	require.Len(t, clients, 1)
	assert.Equal(t, "anna@example.com", clients[0].Get(FieldEmail))

	visits := readAll(t, src, SectionAppointments)
	require.Len(t, visits, 1)
	assert.Equal(t, "150,50", visits[0].Get(FieldAmount))
	assert.Equal(t, "10.03.2025", visits[0].Get(FieldDate))

	_, err := NewCSVDirSource(t.TempDir(), nil).Open(context.Background(), SectionClients)
	assert.ErrorIs(t, err, ErrSectionMissing)
}

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("KLIENCI")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("KLIENCI", "A1", &[]any{"ID Klienta", "Imie Nazwisko", "Booksy"}))
	require.NoError(t, f.SetSheetRow("KLIENCI", "A2", &[]any{"K-1", "Anna Nowak", "+"}))

	_, err = f.NewSheet("WIZYTY")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("WIZYTY", "A1", &[]any{"ID Klienta", "Data", "Godzina Rozpoczęcia"}))
	require.NoError(t, f.SetSheetRow("WIZYTY", "A2", &[]any{"K-1", 45726, 0.5}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXSourceReadsRawCells(t *testing.T) {
	src, err := OpenXLSXBytes(workbook(t), nil)
	require.NoError(t, err)
	defer src.Close()

	clients := readAll(t, src, SectionClients)
	require.Len(t, clients, 1)
	assert.Equal(t, "K-1", clients[0].Get(FieldExternalID))
	assert.Equal(t, "+", clients[0].Get(FieldBooksyUsed))

	visits := readAll(t, src, SectionAppointments)
	require.Len(t, visits, 1)
	assert.Equal(t, "45726", visits[0].Get(FieldDate))
	assert.Equal(t, "0.5", visits[0].Get(FieldStartTime))

	_, err = src.Open(context.Background(), Section("payments"))
	assert.ErrorIs(t, err, ErrSectionMissing)
}

type fakeS3 struct {
	body []byte
	got  *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.got = in
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestFetchXLSX(t *testing.T) {
	fake := &fakeS3{body: workbook(t)}

	src, err := FetchXLSX(context.Background(), fake, "studio-imports", "2025/klienci.xlsx", nil)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "studio-imports", aws.ToString(fake.got.Bucket))
	assert.Equal(t, "2025/klienci.xlsx", aws.ToString(fake.got.Key))
	assert.Len(t, readAll(t, src, SectionClients), 1)
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client(S3Config{Region: "eu-central-1", AccessKeyID: "k", SecretAccessKey: "s", Endpoint: "http://localhost:9000"})
	assert.NotNil(t, c)
}
