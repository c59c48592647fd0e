package spreadsheet

import (
	"context"
	"errors"
)

// Location says where an import reads from. Exactly one of File, CSVDir or
// S3Bucket/S3Key is set.
type Location struct {
	File     string
	CSVDir   string
	S3Bucket string
	S3Key    string
}

// Open resolves a Location into a Source.
func Open(ctx context.Context, loc Location, m *Mapping, s3cfg S3Config) (Source, error) {
	switch {
	case loc.File != "":
		return OpenXLSX(loc.File, m)
	case loc.CSVDir != "":
		return NewCSVDirSource(loc.CSVDir, m), nil
	case loc.S3Bucket != "" && loc.S3Key != "":
		return FetchXLSX(ctx, NewS3Client(s3cfg), loc.S3Bucket, loc.S3Key, m)
	}
	return nil, errors.New("spreadsheet: no file, csv directory or s3 object given")
}
