package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Key layout. Analysis keys embed the project id so that one prefix delete
// invalidates every cached analysis on a project.

func BidKey(bidId uuid.UUID) string {
	return "bid:" + bidId.String()
}

func ProjectBidsKey(projectId uuid.UUID, page, limit int) string {
	return fmt.Sprintf("%s%d:%d", ProjectBidsPrefix(projectId), page, limit)
}

func ProjectBidsPrefix(projectId uuid.UUID) string {
	return "project_bids:" + projectId.String() + ":"
}

func VendorBidsKey(vendorId uuid.UUID, page, limit int) string {
	return fmt.Sprintf("%s%d:%d", VendorBidsPrefix(vendorId), page, limit)
}

func VendorBidsPrefix(vendorId uuid.UUID) string {
	return "vendor_bids:" + vendorId.String() + ":"
}

func AnalysisKey(projectId, bidId uuid.UUID) string {
	return AnalysisPrefix(projectId) + bidId.String()
}

func AnalysisPrefix(projectId uuid.UUID) string {
	return "analysis:" + projectId.String() + ":"
}
