package cli

var (
	PrintFetchResult = printFetchResult
	GetIndexConfig   = getIndexConfig
	CollectionNames  = collectionNames
)
