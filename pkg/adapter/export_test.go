package adapter

var QueryParametersForTest = queryParameters
