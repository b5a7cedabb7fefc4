package parser

// Node kinds produced by the proto3 grammar.
const (
	RuleProto             = "Proto"
	RuleEOF               = "EOF"
	RuleSyntaxStatement   = "SyntaxStatement"
	RulePackageStatement  = "PackageStatement"
	RuleImportStatement   = "ImportStatement"
	RuleEmptyStatement    = "EmptyStatement"
	RuleTopLevelStatement = "TopLevelStatement"

	RuleOptionStatement = "OptionStatement"
	RuleOptionName      = "OptionName"
	RuleConstant        = "Constant"
	RuleSignedNumber    = "SignedNumber"

	RuleMessageBlock   = "MessageBlock"
	RuleMessageName    = "MessageName"
	RuleMessageBody    = "MessageBody"
	RuleMessageElement = "MessageElement"

	RuleField         = "Field"
	RuleFieldModifier = "FieldModifier"
	RuleTypeReference = "TypeReference"
	RuleScalarType    = "ScalarType"
	RuleFullIdent     = "FullIdent"
	RuleFieldName     = "FieldName"
	RuleFieldNumber   = "FieldNumber"
	RuleFieldOptions  = "FieldOptions"
	RuleFieldOption   = "FieldOption"

	RuleOneof        = "Oneof"
	RuleOneofName    = "OneofName"
	RuleOneofElement = "OneofElement"
	RuleOneofField   = "OneofField"

	RuleReservedStatement = "ReservedStatement"
	RuleReservedRanges    = "ReservedRanges"
	RuleReservedRange     = "ReservedRange"
	RuleReservedNames     = "ReservedNames"
	RuleReservedName      = "ReservedName"

	RuleEnumBlock     = "EnumBlock"
	RuleEnumName      = "EnumName"
	RuleEnumBody      = "EnumBody"
	RuleEnumElement   = "EnumElement"
	RuleEnumValue     = "EnumValue"
	RuleEnumValueName = "EnumValueName"
	RuleEnumNumber    = "EnumNumber"

	RuleStringValue = "StringValue"

	// Lexical productions that appear as leaves.
	RuleIdent    = "ident"
	RuleIntLit   = "intLit"
	RuleFloatLit = "floatLit"
	RuleStrLit   = "strLit"

	ruleTrivia = "trivia"
)
