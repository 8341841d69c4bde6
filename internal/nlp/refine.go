package nlp

import (
	"regexp"
	"strconv"
)

// A refinement translates resource-family shorthand ("versioning enabled",
// "partition key 'id'") into the structured property blocks the control
// plane expects. Rules are an ordered list so adding a resource family is
// additive.
type refinement struct {
	typeName string
	apply    func(text string, lower string, props *Properties)
}

var refinements = []refinement{
	{typeName: "AWS::S3::Bucket", apply: refineS3Bucket},
	{typeName: "AWS::DynamoDB::Table", apply: refineDynamoDBTable},
}

var (
	versioningPattern   = regexp.MustCompile(`versioning[:\s]+(enabled|disabled|true|false)`)
	publicAccessPattern = regexp.MustCompile(`public access[:\s]+(blocked|allowed|true|false)`)
	encryptionPattern   = regexp.MustCompile(`encryption[:\s]+(enabled|disabled|true|false)`)

	partitionKeyPattern  = regexp.MustCompile(`(?i)partition key[:\s]+["']([\w.-]+)["']`)
	sortKeyPattern       = regexp.MustCompile(`(?i)sort key[:\s]+["']([\w.-]+)["']`)
	readCapacityPattern  = regexp.MustCompile(`(?i)read capacity[:\s]+(\d+)`)
	writeCapacityPattern = regexp.MustCompile(`(?i)write capacity[:\s]+(\d+)`)
)

func refineS3Bucket(_ string, lower string, props *Properties) {
	if m := versioningPattern.FindStringSubmatch(lower); m != nil {
		status := "Suspended"
		if m[1] == "enabled" || m[1] == "true" {
			status = "Enabled"
		}
		props.Delete("versioning")
		props.Set("VersioningConfiguration", map[string]any{"Status": status})
	}

	if m := publicAccessPattern.FindStringSubmatch(lower); m != nil {
		if m[1] == "blocked" || m[1] == "true" {
			props.Delete("access")
			props.Set("PublicAccessBlockConfiguration", map[string]any{
				"BlockPublicAcls":       true,
				"BlockPublicPolicy":     true,
				"IgnorePublicAcls":      true,
				"RestrictPublicBuckets": true,
			})
		}
	}

	if m := encryptionPattern.FindStringSubmatch(lower); m != nil {
		if m[1] == "enabled" || m[1] == "true" {
			props.Delete("encryption")
			props.Set("BucketEncryption", map[string]any{
				"ServerSideEncryptionConfiguration": []any{
					map[string]any{
						"ServerSideEncryptionByDefault": map[string]any{
							"SSEAlgorithm": "AES256",
						},
					},
				},
			})
		}
	}
}

func refineDynamoDBTable(text string, _ string, props *Properties) {
	if m := partitionKeyPattern.FindStringSubmatch(text); m != nil {
		appendKeySchema(props, m[1], "HASH")
	}
	if m := sortKeyPattern.FindStringSubmatch(text); m != nil {
		appendKeySchema(props, m[1], "RANGE")
	}

	readMatch := readCapacityPattern.FindStringSubmatch(text)
	writeMatch := writeCapacityPattern.FindStringSubmatch(text)
	if readMatch != nil || writeMatch != nil {
		// Either side defaults to 5 when only one is given.
		read, write := 5, 5
		if readMatch != nil {
			read, _ = strconv.Atoi(readMatch[1])
		}
		if writeMatch != nil {
			write, _ = strconv.Atoi(writeMatch[1])
		}
		props.Delete("capacity")
		props.Set("ProvisionedThroughput", map[string]any{
			"ReadCapacityUnits":  read,
			"WriteCapacityUnits": write,
		})
	}
}

// appendKeySchema grows KeySchema and AttributeDefinitions together; the
// attribute type is assumed to be string.
func appendKeySchema(props *Properties, attribute string, keyType string) {
	appendEntry(props, "KeySchema", map[string]any{
		"AttributeName": attribute,
		"KeyType":       keyType,
	})
	appendEntry(props, "AttributeDefinitions", map[string]any{
		"AttributeName": attribute,
		"AttributeType": "S",
	})
}

func appendEntry(props *Properties, key string, entry map[string]any) {
	existing, _ := props.Get(key)
	list, _ := existing.([]any)
	props.Set(key, append(list, entry))
}
