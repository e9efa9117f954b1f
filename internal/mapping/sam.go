package mapping

// IdentifierField is the canonical primary-key column of the extract. Rows
// without it are skipped by the scanner.
const IdentifierField = "notice_id"

// SAM is the fixed column mapping of ContractOpportunitiesFullCSV.csv.
var SAM = New(
	Pair{"NoticeId", "notice_id"},
	Pair{"Title", "title"},
	Pair{"Sol#", "solicitation_number"},
	Pair{"Department/Ind.Agency", "agency"},
	Pair{"CGAC", "cgac"},
	Pair{"Sub-Tier", "sub_tier"},
	Pair{"FPDS Code", "fpds_code"},
	Pair{"Office", "office"},
	Pair{"AAC Code", "aac_code"},
	Pair{"PostedDate", "posted_date"},
	Pair{"Type", "type"},
	Pair{"BaseType", "base_type"},
	Pair{"ArchiveType", "archive_type"},
	Pair{"ArchiveDate", "archive_date"},
	Pair{"SetASideCode", "set_aside_code"},
	Pair{"SetASide", "set_aside"},
	Pair{"ResponseDeadLine", "response_deadline"},
	Pair{"NaicsCode", "naics_code"},
	Pair{"ClassificationCode", "classification_code"},
	Pair{"PopStreetAddress", "pop_street_address"},
	Pair{"PopCity", "pop_city"},
	Pair{"PopState", "pop_state"},
	Pair{"PopZip", "pop_zip"},
	Pair{"PopCountry", "pop_country"},
	Pair{"Active", "active"},
	Pair{"AwardNumber", "award_number"},
	Pair{"AwardDate", "award_date"},
	Pair{"Award$", "award_amount"},
	Pair{"Awardee", "awardee"},
	Pair{"PrimaryContactTitle", "primary_contact_title"},
	Pair{"PrimaryContactFullname", "primary_contact_fullname"},
	Pair{"PrimaryContactEmail", "primary_contact_email"},
	Pair{"PrimaryContactPhone", "primary_contact_phone"},
	Pair{"PrimaryContactFax", "primary_contact_fax"},
	Pair{"SecondaryContactTitle", "secondary_contact_title"},
	Pair{"SecondaryContactFullname", "secondary_contact_fullname"},
	Pair{"SecondaryContactEmail", "secondary_contact_email"},
	Pair{"SecondaryContactPhone", "secondary_contact_phone"},
	Pair{"SecondaryContactFax", "secondary_contact_fax"},
	Pair{"OrganizationType", "organization_type"},
	Pair{"State", "state"},
	Pair{"City", "city"},
	Pair{"ZipCode", "zip_code"},
	Pair{"CountryCode", "country_code"},
	Pair{"AdditionalInfoLink", "additional_info_link"},
	Pair{"Link", "link"},
	Pair{"Description", "description"},
)
