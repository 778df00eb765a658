package permission

// Catalog ids. The list is append-only: existing values are persisted in
// stored masks and must never be renumbered.
const (
	// Interaction
	Read ID = iota + 1 // 1
	Comment
	Reply
	Vote
	Share
	Report
	Follow
	Bookmark
	React
	Subscribe // 10

	// Curation
	Categorize // 11
	Collection
	Series
	CrossReference
	Translate

	// Lifecycle
	Create // 16
	Draft
	Submit
	Edit
	Delete // 20
	Archive
	Restore
	SoftDelete
	HardDelete

	// Editorial
	Annotate // 25
	Append
	Prepend
	Highlight
	Footnote
	Reorder // 30
	Revise

	// Moderation
	Review // 32
	Approve
	Reject
	Hide
	Lock
	Pin
	Feature
	Escalate
	Ban // 40
	Mute

	// Monetization
	Monetize // 42
	Price
	Discount
	Refund
	Payout
	Invoice
	Sponsor

	// Promotion
	Promote // 49
	Advertise // 50
	Boost
	Recommend
	Showcase
	Endorse

	// Publishing
	Publish // 55
	Unpublish
	Schedule
	Embed
	Syndicate
	Export // 60
	Import

	// Quality
	FactCheck // 62
	Verify
	Certify
	Rate
	Grade
	Audit

	// Analytics
	ViewAnalytics // 68
	ExportAnalytics
	ViewRevenue // 70
	ViewAudience
	ViewHistory

	// Collaboration
	Invite // 73
	AssignReviewer
	Mention
	Fork
	Merge
	Transfer
	CoAuthor
	Delegate // 80

	// Administration
	ManagePermissions // 81
	ManageRoles
	ManageMembers
	ManageTenant
	ManageSettings
	ManageBilling
	ManageIntegrations
	ManageContentTypes
	Impersonate
	ViewAuditLog // 90
	SuperAdmin // 91

	// endOfCatalog must stay last.
	endOfCatalog
)

// Count is the number of catalog entries.
const Count = int(endOfCatalog) - 1

var entries = [Count]Entry{
	{ID: Read, Name: "Read", Category: CategoryInteraction},
	{ID: Comment, Name: "Comment", Category: CategoryInteraction},
	{ID: Reply, Name: "Reply", Category: CategoryInteraction},
	{ID: Vote, Name: "Vote", Category: CategoryInteraction},
	{ID: Share, Name: "Share", Category: CategoryInteraction},
	{ID: Report, Name: "Report", Category: CategoryInteraction},
	{ID: Follow, Name: "Follow", Category: CategoryInteraction},
	{ID: Bookmark, Name: "Bookmark", Category: CategoryInteraction},
	{ID: React, Name: "React", Category: CategoryInteraction},
	{ID: Subscribe, Name: "Subscribe", Category: CategoryInteraction},
	{ID: Categorize, Name: "Categorize", Category: CategoryCuration},
	{ID: Collection, Name: "Collection", Category: CategoryCuration},
	{ID: Series, Name: "Series", Category: CategoryCuration},
	{ID: CrossReference, Name: "CrossReference", Category: CategoryCuration},
	{ID: Translate, Name: "Translate", Category: CategoryCuration},
	{ID: Create, Name: "Create", Category: CategoryLifecycle},
	{ID: Draft, Name: "Draft", Category: CategoryLifecycle},
	{ID: Submit, Name: "Submit", Category: CategoryLifecycle},
	{ID: Edit, Name: "Edit", Category: CategoryLifecycle},
	{ID: Delete, Name: "Delete", Category: CategoryLifecycle},
	{ID: Archive, Name: "Archive", Category: CategoryLifecycle},
	{ID: Restore, Name: "Restore", Category: CategoryLifecycle},
	{ID: SoftDelete, Name: "SoftDelete", Category: CategoryLifecycle},
	{ID: HardDelete, Name: "HardDelete", Category: CategoryLifecycle},
	{ID: Annotate, Name: "Annotate", Category: CategoryEditorial},
	{ID: Append, Name: "Append", Category: CategoryEditorial},
	{ID: Prepend, Name: "Prepend", Category: CategoryEditorial},
	{ID: Highlight, Name: "Highlight", Category: CategoryEditorial},
	{ID: Footnote, Name: "Footnote", Category: CategoryEditorial},
	{ID: Reorder, Name: "Reorder", Category: CategoryEditorial},
	{ID: Revise, Name: "Revise", Category: CategoryEditorial},
	{ID: Review, Name: "Review", Category: CategoryModeration},
	{ID: Approve, Name: "Approve", Category: CategoryModeration},
	{ID: Reject, Name: "Reject", Category: CategoryModeration},
	{ID: Hide, Name: "Hide", Category: CategoryModeration},
	{ID: Lock, Name: "Lock", Category: CategoryModeration},
	{ID: Pin, Name: "Pin", Category: CategoryModeration},
	{ID: Feature, Name: "Feature", Category: CategoryModeration},
	{ID: Escalate, Name: "Escalate", Category: CategoryModeration},
	{ID: Ban, Name: "Ban", Category: CategoryModeration},
	{ID: Mute, Name: "Mute", Category: CategoryModeration},
	{ID: Monetize, Name: "Monetize", Category: CategoryMonetization},
	{ID: Price, Name: "Price", Category: CategoryMonetization},
	{ID: Discount, Name: "Discount", Category: CategoryMonetization},
	{ID: Refund, Name: "Refund", Category: CategoryMonetization},
	{ID: Payout, Name: "Payout", Category: CategoryMonetization},
	{ID: Invoice, Name: "Invoice", Category: CategoryMonetization},
	{ID: Sponsor, Name: "Sponsor", Category: CategoryMonetization},
	{ID: Promote, Name: "Promote", Category: CategoryPromotion},
	{ID: Advertise, Name: "Advertise", Category: CategoryPromotion},
	{ID: Boost, Name: "Boost", Category: CategoryPromotion},
	{ID: Recommend, Name: "Recommend", Category: CategoryPromotion},
	{ID: Showcase, Name: "Showcase", Category: CategoryPromotion},
	{ID: Endorse, Name: "Endorse", Category: CategoryPromotion},
	{ID: Publish, Name: "Publish", Category: CategoryPublishing},
	{ID: Unpublish, Name: "Unpublish", Category: CategoryPublishing},
	{ID: Schedule, Name: "Schedule", Category: CategoryPublishing},
	{ID: Embed, Name: "Embed", Category: CategoryPublishing},
	{ID: Syndicate, Name: "Syndicate", Category: CategoryPublishing},
	{ID: Export, Name: "Export", Category: CategoryPublishing},
	{ID: Import, Name: "Import", Category: CategoryPublishing},
	{ID: FactCheck, Name: "FactCheck", Category: CategoryQuality},
	{ID: Verify, Name: "Verify", Category: CategoryQuality},
	{ID: Certify, Name: "Certify", Category: CategoryQuality},
	{ID: Rate, Name: "Rate", Category: CategoryQuality},
	{ID: Grade, Name: "Grade", Category: CategoryQuality},
	{ID: Audit, Name: "Audit", Category: CategoryQuality},
	{ID: ViewAnalytics, Name: "ViewAnalytics", Category: CategoryAnalytics},
	{ID: ExportAnalytics, Name: "ExportAnalytics", Category: CategoryAnalytics},
	{ID: ViewRevenue, Name: "ViewRevenue", Category: CategoryAnalytics},
	{ID: ViewAudience, Name: "ViewAudience", Category: CategoryAnalytics},
	{ID: ViewHistory, Name: "ViewHistory", Category: CategoryAnalytics},
	{ID: Invite, Name: "Invite", Category: CategoryCollaboration},
	{ID: AssignReviewer, Name: "AssignReviewer", Category: CategoryCollaboration},
	{ID: Mention, Name: "Mention", Category: CategoryCollaboration},
	{ID: Fork, Name: "Fork", Category: CategoryCollaboration},
	{ID: Merge, Name: "Merge", Category: CategoryCollaboration},
	{ID: Transfer, Name: "Transfer", Category: CategoryCollaboration},
	{ID: CoAuthor, Name: "CoAuthor", Category: CategoryCollaboration},
	{ID: Delegate, Name: "Delegate", Category: CategoryCollaboration},
	{ID: ManagePermissions, Name: "ManagePermissions", Category: CategoryAdministration},
	{ID: ManageRoles, Name: "ManageRoles", Category: CategoryAdministration},
	{ID: ManageMembers, Name: "ManageMembers", Category: CategoryAdministration},
	{ID: ManageTenant, Name: "ManageTenant", Category: CategoryAdministration},
	{ID: ManageSettings, Name: "ManageSettings", Category: CategoryAdministration},
	{ID: ManageBilling, Name: "ManageBilling", Category: CategoryAdministration},
	{ID: ManageIntegrations, Name: "ManageIntegrations", Category: CategoryAdministration},
	{ID: ManageContentTypes, Name: "ManageContentTypes", Category: CategoryAdministration},
	{ID: Impersonate, Name: "Impersonate", Category: CategoryAdministration},
	{ID: ViewAuditLog, Name: "ViewAuditLog", Category: CategoryAdministration},
	{ID: SuperAdmin, Name: "SuperAdmin", Category: CategoryAdministration},
}
