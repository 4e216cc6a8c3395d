package repository

var IsFirestoreSizeErrorForTest = isFirestoreSizeError
