package storage

import "testing"

func TestBuildObjectPath(t *testing.T) {
	cases := []struct {
		name    string
		purpose ExportPurpose
		params  PathParams
		want    string
		wantErr bool
	}{
		{
			name:    "product export",
			purpose: PurposeProductExport,
			params:  PathParams{ExportID: "exp_01", FileName: "products.csv"},
			want:    "exports/products/exp_01/products.csv",
		},
		{
			name:    "order export",
			purpose: PurposeOrderExport,
			params:  PathParams{ExportID: "exp_02", FileName: "orders.csv"},
			want:    "exports/orders/exp_02/orders.csv",
		},
		{
			name:    "missing export id",
			purpose: PurposeOrderExport,
			params:  PathParams{FileName: "orders.csv"},
			wantErr: true,
		},
		{
			name:    "traversal in file name",
			purpose: PurposeProductExport,
			params:  PathParams{ExportID: "exp_01", FileName: "../secrets.csv"},
			wantErr: true,
		},
		{
			name:    "path separator in export id",
			purpose: PurposeProductExport,
			params:  PathParams{ExportID: "a/b", FileName: "products.csv"},
			wantErr: true,
		},
		{
			name:    "unsupported purpose",
			purpose: ExportPurpose("zip-bundle"),
			params:  PathParams{ExportID: "exp_01", FileName: "x.csv"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BuildObjectPath(tc.purpose, tc.params)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
