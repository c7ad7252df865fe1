package api

import "context"

// ReportAPI shapes requests for the reporting endpoints.
type ReportAPI struct {
	client *Client
}

// NewReportAPI creates the report module over the authenticated client.
func NewReportAPI(client *Client) *ReportAPI {
	return &ReportAPI{client: client}
}

// ExportTasks downloads the task report as an opaque spreadsheet byte
// stream. The caller decides where to write it.
func (r *ReportAPI) ExportTasks(ctx context.Context) ([]byte, error) {
	return r.client.GetRaw(ctx, "/api/v1/reports/tasks/export")
}
