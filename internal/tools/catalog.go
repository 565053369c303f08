package tools

func float(v float64) *float64 { return &v }

// shared parameter declarations

func uuidParam(what string) Param {
	return Param{Name: "uuid", Kind: KindString, Flag: "--uuid",
		Description: "UUID of the " + what + " (either uuid or path is required)"}
}

func pathParam(what string) Param {
	return Param{Name: "path", Kind: KindString, Flag: "--path",
		Description: "Full path of the " + what + ", e.g. /Root/Folder/Part.stl (either uuid or path is required)"}
}

func folderUUIDParam(desc string) Param {
	return Param{Name: "folder_uuid", Kind: KindString, Flag: "--folder-uuid", Description: desc}
}

func folderPathParam(desc string) Param {
	return Param{Name: "folder_path", Kind: KindString, Flag: "--folder-path", Description: desc}
}

func formatParam(values ...string) Param {
	return Param{Name: "format", Kind: KindEnum, Flag: "--format", Enum: values, Default: values[0],
		Description: "Output format"}
}

func headersParam() Param {
	return Param{Name: "headers", Kind: KindBoolean, Flag: "--headers",
		Description: "Include a header row (csv output)"}
}

func metadataParam() Param {
	return Param{Name: "metadata", Kind: KindBoolean, Flag: "--metadata",
		Description: "Include asset metadata in the output"}
}

func prettyParam() Param {
	return Param{Name: "pretty", Kind: KindBoolean, Flag: "--pretty",
		Description: "Pretty-print json output"}
}

func tenantParam() Param {
	return Param{Name: "tenant", Kind: KindString, Flag: "--tenant",
		Description: "Tenant to run against (optional, defaults to the active tenant)"}
}

func thresholdParam() Param {
	return Param{Name: "threshold", Kind: KindNumber, Flag: "--threshold", Precision: 2,
		Min: float(0), Max: float(100), Default: 80.0,
		Description: "Similarity threshold in percent, 0 to 100"}
}

var (
	identifyAsset  = [][]string{{"uuid", "path"}}
	identifyFolder = [][]string{{"folder_uuid", "folder_path"}}
)

// Catalog returns the built-in pcli2 tool definitions in the order they
// are advertised.
func Catalog() []Tool {
	return []Tool{
		// tenant and configuration
		{
			Name:        "pcli2_tenant_list",
			Title:       "List tenants",
			Description: "List the tenants the current user has access to",
			Command:     []string{"tenant", "list"},
			Params:      []Param{formatParam("json", "csv"), headersParam(), prettyParam()},
			ReadOnly:    true,
		},
		{
			Name:        "pcli2_config_get",
			Title:       "Show configuration",
			Description: "Show the active PCLI2 configuration",
			Command:     []string{"config", "get"},
			Params:      []Param{formatParam("yaml", "json")},
			ReadOnly:    true,
		},

		// folders
		{
			Name:        "pcli2_folder_list",
			Title:       "List folders",
			Description: "List folders, optionally below a parent folder; tree format shows the hierarchy",
			Command:     []string{"folder", "list"},
			Params: []Param{
				folderUUIDParam("UUID of the parent folder (optional)"),
				folderPathParam("Path of the parent folder (optional)"),
				formatParam("json", "csv", "tree"),
				headersParam(),
				prettyParam(),
				tenantParam(),
			},
			ReadOnly: true,
		},
		{
			Name:         "pcli2_folder_get",
			Title:        "Get folder",
			Description:  "Get details of a single folder",
			Command:      []string{"folder", "get"},
			Params:       []Param{uuidParam("folder"), pathParam("folder"), formatParam("json", "csv"), headersParam(), prettyParam(), tenantParam()},
			AtLeastOneOf: identifyAsset,
			ReadOnly:     true,
		},

		// assets
		{
			Name:        "pcli2_asset_list",
			Title:       "List assets",
			Description: "List the assets in a folder",
			Command:     []string{"asset", "list"},
			Params: []Param{
				folderUUIDParam("UUID of the folder (either folder_uuid or folder_path is required)"),
				folderPathParam("Path of the folder (either folder_uuid or folder_path is required)"),
				formatParam("json", "csv"),
				headersParam(),
				metadataParam(),
				prettyParam(),
				tenantParam(),
			},
			AtLeastOneOf: identifyFolder,
			ReadOnly:     true,
		},
		{
			Name:         "pcli2_asset_get",
			Title:        "Get asset",
			Description:  "Get details of a single asset",
			Command:      []string{"asset", "get"},
			Params:       []Param{uuidParam("asset"), pathParam("asset"), formatParam("json", "csv"), headersParam(), metadataParam(), prettyParam(), tenantParam()},
			AtLeastOneOf: identifyAsset,
			ReadOnly:     true,
		},
		{
			Name:         "pcli2_asset_dependencies",
			Title:        "Asset dependencies",
			Description:  "Show the assembly dependencies of an asset",
			Command:      []string{"asset", "dependencies"},
			Params:       []Param{uuidParam("asset"), pathParam("asset"), formatParam("json", "csv", "tree"), headersParam(), prettyParam(), tenantParam()},
			AtLeastOneOf: identifyAsset,
			ReadOnly:     true,
		},

		// search
		{
			Name:        "pcli2_geometric_match",
			Title:       "Geometric match",
			Description: "Find assets geometrically similar to the reference asset",
			Command:     []string{"asset", "geometric-match"},
			Params: []Param{
				uuidParam("reference asset"),
				pathParam("reference asset"),
				thresholdParam(),
				formatParam("json", "csv"),
				headersParam(),
				metadataParam(),
				prettyParam(),
				tenantParam(),
			},
			AtLeastOneOf: identifyAsset,
			ReadOnly:     true,
		},
		{
			Name:        "pcli2_part_match",
			Title:       "Part match",
			Description: "Find assets that contain the reference part",
			Command:     []string{"asset", "part-match"},
			Params: []Param{
				uuidParam("reference asset"),
				pathParam("reference asset"),
				thresholdParam(),
				formatParam("json", "csv"),
				headersParam(),
				metadataParam(),
				prettyParam(),
				tenantParam(),
			},
			AtLeastOneOf: identifyAsset,
			ReadOnly:     true,
		},
		{
			Name:         "pcli2_visual_match",
			Title:        "Visual match",
			Description:  "Find assets that look similar to the reference asset",
			Command:      []string{"asset", "visual-match"},
			Params:       []Param{uuidParam("reference asset"), pathParam("reference asset"), formatParam("json", "csv"), headersParam(), metadataParam(), prettyParam(), tenantParam()},
			AtLeastOneOf: identifyAsset,
			ReadOnly:     true,
		},
		{
			Name:        "pcli2_text_match",
			Title:       "Text match",
			Description: "Search assets by text",
			Command:     []string{"asset", "text-match"},
			Params: []Param{
				{Name: "text", Kind: KindString, Flag: "--text", Required: true, Description: "Text to search for"},
				{Name: "fuzzy", Kind: KindBoolean, Flag: "--fuzzy", Description: "Allow fuzzy matches"},
				formatParam("json", "csv"),
				headersParam(),
				metadataParam(),
				prettyParam(),
				tenantParam(),
			},
			ReadOnly: true,
		},

		// metadata
		{
			Name:         "pcli2_asset_metadata_get",
			Title:        "Get asset metadata",
			Description:  "Show the metadata properties of an asset",
			Command:      []string{"asset", "metadata", "get"},
			Params:       []Param{uuidParam("asset"), pathParam("asset"), formatParam("json", "csv"), headersParam(), prettyParam(), tenantParam()},
			AtLeastOneOf: identifyAsset,
			ReadOnly:     true,
		},
		{
			Name:        "pcli2_asset_metadata_create",
			Title:       "Set asset metadata",
			Description: "Create or update a metadata property on an asset",
			Command:     []string{"asset", "metadata", "create"},
			Params: []Param{
				uuidParam("asset"),
				pathParam("asset"),
				{Name: "name", Kind: KindString, Flag: "--name", Required: true, Description: "Metadata property name"},
				{Name: "value", Kind: KindString, Flag: "--value", Required: true, Description: "Metadata property value"},
				{Name: "type", Kind: KindEnum, Flag: "--type", Enum: []string{"text", "number", "boolean"}, Default: "text",
					Description: "Metadata property type"},
				tenantParam(),
			},
			AtLeastOneOf: identifyAsset,
		},

		// thumbnails
		{
			Name:         "pcli2_asset_thumbnail",
			Title:        "Asset thumbnail",
			Description:  "Download the thumbnail image of an asset",
			Command:      []string{"asset", "thumbnail"},
			Params:       []Param{uuidParam("asset"), pathParam("asset"), tenantParam()},
			AtLeastOneOf: identifyAsset,
			TrailingArgs: []string{"--file", "-"},
			Output:       OutputBinary,
			MIMEType:     "image/png",
			ReadOnly:     true,
		},
		{
			Name:        "pcli2_folder_thumbnails",
			Title:       "Folder thumbnails",
			Description: "Download thumbnails for every asset in a folder, optionally only assets with the given tags",
			Command:     []string{"folder", "thumbnails"},
			Params: []Param{
				folderUUIDParam("UUID of the folder (either folder_uuid or folder_path is required)"),
				folderPathParam("Path of the folder (either folder_uuid or folder_path is required)"),
				{Name: "tags", Kind: KindStringList, Flag: "--tag", Description: "Only include assets carrying these tags"},
				tenantParam(),
			},
			AtLeastOneOf: identifyFolder,
		},
	}
}
